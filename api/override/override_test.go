package override_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpod-hq/sentinel/cmd"
	"github.com/skillpod-hq/sentinel/database/dbcore"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dbcore.InitializeForTest())
	r := gin.New()
	cmd.RegisterRoutes(r)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}, tenant, user string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("x-tenant-id", tenant)
	}
	if user != "" {
		req.Header.Set("x-user-id", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createRequest(t *testing.T, r *gin.Engine, tenant, user string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/override-requests", gin.H{
		"transfer_type": "FILE_UPLOAD",
		"direction":     "INBOUND",
		"file_name":     "report.xlsx",
		"file_size":     4096,
		"reason":        "need to upload the quarterly report",
	}, tenant, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "PENDING", resp.Data.Status)
	return resp.Data.ID
}

func TestCreateOverrideRequest(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name           string
		body           gin.H
		tenant, user   string
		expectedStatus int
	}{
		{
			name: "创建成功",
			body: gin.H{
				"transfer_type": "FILE_UPLOAD",
				"direction":     "INBOUND",
				"reason":        "a perfectly valid justification",
			},
			tenant: "t1", user: "alice",
			expectedStatus: http.StatusOK,
		},
		{
			name: "缺少身份头",
			body: gin.H{
				"transfer_type": "FILE_UPLOAD",
				"direction":     "INBOUND",
				"reason":        "a perfectly valid justification",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "理由过短",
			body: gin.H{
				"transfer_type": "FILE_UPLOAD",
				"direction":     "INBOUND",
				"reason":        "short",
			},
			tenant: "t1", user: "alice",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "缺少传输类型",
			body: gin.H{
				"direction": "INBOUND",
				"reason":    "a perfectly valid justification",
			},
			tenant: "t1", user: "alice",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/override-requests", tt.body, tt.tenant, tt.user)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestApproveFlow(t *testing.T) {
	r := setupRouter(t)
	id := createRequest(t, r, "t-approve", "alice")

	w := doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/approve",
		gin.H{"notes": "checked with compliance"}, "t-approve", "admin")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 已终态的记录再次审批 → 400
	w = doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/approve", nil, "t-approve", "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 详情可见终态
	w = doJSON(r, http.MethodGet, "/api/override-requests/"+id, nil, "t-approve", "alice")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status      string `json:"status"`
			ProcessedBy string `json:"processed_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "APPROVED", resp.Data.Status)
	assert.Equal(t, "admin", resp.Data.ProcessedBy)
}

func TestRejectRequiresReason(t *testing.T) {
	r := setupRouter(t)
	id := createRequest(t, r, "t-reject", "alice")

	w := doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/reject",
		gin.H{}, "t-reject", "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/reject",
		gin.H{"reason": "not allowed under current policy"}, "t-reject", "admin")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCancelWrongActorForbidden(t *testing.T) {
	r := setupRouter(t)
	id := createRequest(t, r, "t-cancel", "alice")

	w := doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/cancel", nil, "t-cancel", "mallory")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/api/override-requests/"+id+"/cancel", nil, "t-cancel", "alice")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGetUnknownIDNotFound(t *testing.T) {
	r := setupRouter(t)
	w := doJSON(r, http.MethodGet, "/api/override-requests/no-such-id", nil, "t1", "alice")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPendingCountAndList(t *testing.T) {
	r := setupRouter(t)
	createRequest(t, r, "t-dash", "alice")
	createRequest(t, r, "t-dash", "bob")

	w := doJSON(r, http.MethodGet, "/api/override-requests/pending-count", nil, "t-dash", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	var countResp struct {
		Data struct {
			Pending int64 `json:"pending"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &countResp))
	assert.Equal(t, int64(2), countResp.Data.Pending)

	w = doJSON(r, http.MethodGet, "/api/override-requests?requestedBy=bob", nil, "t-dash", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, int64(1), listResp.Data.Total)
}
