package dlp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillpod-hq/sentinel/api"
	"github.com/skillpod-hq/sentinel/database/attempts"
	"github.com/skillpod-hq/sentinel/database/models"
	"github.com/skillpod-hq/sentinel/database/policies"
	"github.com/skillpod-hq/sentinel/policy"
)

// EvaluateRequest POST /api/dlp/evaluate 请求体
type EvaluateRequest struct {
	SessionID string `json:"session_id"`
	policy.Request
}

// Evaluate 评估一次会话动作并写入审计流水。
// 评估本身是纯函数，落库只是归档，不影响判定结果。
func Evaluate(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	var body EvaluateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := policies.GetPolicy(tenantID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	verdict := policy.Evaluate(p, body.Request)

	attempt := &models.DataTransferAttempt{
		TenantID:  tenantID,
		SessionID: body.SessionID,
		UserID:    userID,
		Type:      body.Type,
		Direction: body.Direction,
		Action:    actionFor(verdict),
		Reason:    verdict.Reason,
		FileName:  body.FileName,
		FileSize:  body.FileSize,
		Target:    targetFor(body.Request),
		ClientIP:  c.ClientIP(),
	}
	if err := attempts.Record(attempt); err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	api.RespondSuccess(c, gin.H{
		"verdict":    verdict,
		"attempt_id": attempt.ID,
	})
}

// ListAttempts GET /api/dlp/attempts
func ListAttempts(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	startDate, err := api.ParseDateQuery(c, "startDate")
	if err != nil {
		api.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	endDate, err := api.ParseDateQuery(c, "endDate")
	if err != nil {
		api.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	page, limit := api.PageQuery(c)

	list, total, err := attempts.List(tenantID, attempts.ListFilter{
		UserID:    c.Query("userId"),
		Type:      models.TransferType(c.Query("type")),
		Action:    models.AttemptAction(c.Query("action")),
		StartDate: startDate,
		EndDate:   endDate,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{
		"items": list,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetCurrentPolicy GET /api/policies/current
func GetCurrentPolicy(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	p, err := policies.GetPolicy(tenantID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, p)
}

func actionFor(v policy.Verdict) models.AttemptAction {
	if !v.Allowed {
		return models.AttemptBlocked
	}
	if v.Logged {
		return models.AttemptLogged
	}
	return models.AttemptAllowed
}

func targetFor(req policy.Request) string {
	if req.Target != "" {
		return req.Target
	}
	return req.DeviceID
}
