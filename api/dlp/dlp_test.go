package dlp_test

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
	"github.com/skillpod-hq/sentinel/database/models"
	"github.com/skillpod-hq/sentinel/database/policies"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dbcore.InitializeForTest())
	r := gin.New()
	cmd.RegisterRoutes(r)
	return r
}

func postEvaluate(t *testing.T, r *gin.Engine, tenant string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/dlp/evaluate", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-tenant-id", tenant)
	req.Header.Set("x-user-id", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEvaluateRecordsAttempt(t *testing.T) {
	r := setupRouter(t)

	// 默认策略剪贴板全禁
	w := postEvaluate(t, r, "t-eval", gin.H{
		"session_id":    "sess-1",
		"transfer_type": "CLIPBOARD",
		"direction":     "OUTBOUND",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Verdict struct {
				Allowed bool   `json:"allowed"`
				Reason  string `json:"reason"`
			} `json:"verdict"`
			AttemptID uint `json:"attempt_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Verdict.Allowed)
	assert.Equal(t, "Clipboard access is completely blocked", resp.Data.Verdict.Reason)
	assert.NotZero(t, resp.Data.AttemptID)

	// 流水可查，动作归档为 BLOCKED
	req := httptest.NewRequest(http.MethodGet, "/api/dlp/attempts?action=BLOCKED", nil)
	req.Header.Set("x-tenant-id", "t-eval")
	req.Header.Set("x-user-id", "alice")
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var list struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Data.Total)
}

func TestEvaluateHonorsTenantPolicy(t *testing.T) {
	r := setupRouter(t)

	p, err := policies.GetPolicy("t-custom")
	require.NoError(t, err)
	p.Network = models.NetworkUnrestricted
	p.BlockedDomains = models.StringArray{"malware.com"}
	require.NoError(t, policies.UpdatePolicy(p))

	w := postEvaluate(t, r, "t-custom", gin.H{
		"transfer_type": "NETWORK",
		"target":        "malware.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Verdict struct {
				Allowed bool `json:"allowed"`
			} `json:"verdict"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Verdict.Allowed)

	w = postEvaluate(t, r, "t-custom", gin.H{
		"transfer_type": "NETWORK",
		"target":        "example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Verdict.Allowed)
}

func TestGetCurrentPolicyCreatesDefault(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/policies/current", nil)
	req.Header.Set("x-tenant-id", "t-fresh")
	req.Header.Set("x-user-id", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.SecurityPolicy `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "t-fresh", resp.Data.TenantID)
	assert.Equal(t, models.ClipboardBlocked, resp.Data.Clipboard)
	assert.True(t, resp.Data.WatermarkEnabled)
}
