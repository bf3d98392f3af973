package override

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillpod-hq/sentinel/api"
	"github.com/skillpod-hq/sentinel/database/attempts"
	"github.com/skillpod-hq/sentinel/database/models"
	dboverride "github.com/skillpod-hq/sentinel/database/override"
)

// CreateRequest POST /api/override-requests
type CreateRequest struct {
	Type      models.TransferType      `json:"transfer_type" binding:"required"`
	Direction models.TransferDirection `json:"direction" binding:"required"`
	AttemptID *uint                    `json:"attempt_id,omitempty"`
	FileName  string                   `json:"file_name,omitempty"`
	FileSize  int64                    `json:"file_size,omitempty"`
	Reason    string                   `json:"reason" binding:"required,min=10,max=1000"`
}

// Create 创建例外申请
func Create(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req := &models.TransferOverrideRequest{
		TenantID:    tenantID,
		AttemptID:   body.AttemptID,
		RequestedBy: userID,
		Type:        body.Type,
		Direction:   body.Direction,
		FileName:    body.FileName,
		FileSize:    body.FileSize,
		Reason:      body.Reason,
	}
	if err := dboverride.Create(req); err != nil {
		respondWorkflowError(c, err)
		return
	}
	api.RespondSuccess(c, gin.H{
		"id":         req.ID,
		"status":     req.Status,
		"expires_at": req.ExpiresAt,
	})
}

// Get GET /api/override-requests/:id
func Get(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	req, err := dboverride.Get(tenantID, c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	api.RespondSuccess(c, req)
}

// List GET /api/override-requests
func List(c *gin.Context) {
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

	list, total, err := dboverride.List(tenantID, dboverride.ListFilter{
		Status:      models.OverrideStatus(c.Query("status")),
		RequestedBy: c.Query("requestedBy"),
		StartDate:   startDate,
		EndDate:     endDate,
		Page:        page,
		Limit:       limit,
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

// Approve POST /api/override-requests/:id/approve
func Approve(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req, err := dboverride.Approve(tenantID, c.Param("id"), userID, body.Notes)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	api.RespondSuccess(c, req)
}

// Reject POST /api/override-requests/:id/reject
func Reject(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason" binding:"required,min=10,max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req, err := dboverride.Reject(tenantID, c.Param("id"), userID, body.Reason)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	api.RespondSuccess(c, req)
}

// Cancel POST /api/override-requests/:id/cancel
func Cancel(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	req, err := dboverride.Cancel(tenantID, c.Param("id"), userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	api.RespondSuccess(c, req)
}

// PendingCount GET /api/override-requests/pending-count
func PendingCount(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	count, err := dboverride.PendingCount(tenantID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{"pending": count})
}

// respondWorkflowError 工作流错误到 HTTP 状态码的映射。
// Expired 与 InvalidState 都是 400，但 message 可区分"过期"与"已处理"。
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dboverride.ErrNotFound), errors.Is(err, attempts.ErrNotFound):
		api.RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dboverride.ErrUnauthorized):
		api.RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, dboverride.ErrInvalidState),
		errors.Is(err, dboverride.ErrExpired),
		errors.Is(err, dboverride.ErrInvalidAttempt):
		api.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		api.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}
