package watermark

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillpod-hq/sentinel/api"
	"github.com/skillpod-hq/sentinel/database/policies"
	dbwatermark "github.com/skillpod-hq/sentinel/database/watermark"
	"github.com/skillpod-hq/sentinel/watermark"
)

// applier 进程级编排器；帧嵌入由流媒体管线经同一实例进程内调用
var applier = watermark.NewApplier(watermark.NewKeyManager())

// Applier 暴露编排器给流媒体管线（进程内调用，不走 HTTP）
func Applier() *watermark.Applier {
	return applier
}

// InitSessionRequest POST /api/watermark/sessions 请求体
type InitSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserEmail string `json:"user_email"`
	PodID     string `json:"pod_id"`
	ClientIP  string `json:"client_ip"`
	ConfigID  string `json:"config_id,omitempty"`
}

// InitSession 会话启动时创建水印实例并返回首个可见覆盖层
func InitSession(c *gin.Context) {
	tenantID, userID, ok := api.Identity(c)
	if !ok {
		return
	}
	var body InitSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := policies.GetPolicy(tenantID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !p.WatermarkEnabled {
		api.RespondSuccess(c, gin.H{"watermark_enabled": false})
		return
	}

	identity := watermark.Identity{
		UserID:    userID,
		UserEmail: body.UserEmail,
		SessionID: body.SessionID,
		TenantID:  tenantID,
		PodID:     body.PodID,
		ClientIP:  body.ClientIP,
		Timestamp: time.Now(),
	}
	instance, overlay, err := applier.InitSession(identity, body.ConfigID)
	if err != nil {
		respondWatermarkError(c, err)
		return
	}
	api.RespondSuccess(c, gin.H{
		"watermark_enabled": true,
		"instance":          instance,
		"overlay":           overlay,
	})
}

// RefreshOverlay POST /api/watermark/sessions/:sessionId/refresh
// 长会话定期刷新可见时间戳，不创建新实例。
func RefreshOverlay(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	var body struct {
		InstanceID string `json:"instance_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		api.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	overlay, err := applier.RefreshOverlay(tenantID, c.Param("sessionId"), body.InstanceID)
	if err != nil {
		respondWatermarkError(c, err)
		return
	}
	api.RespondSuccess(c, overlay)
}

// CloseSession POST /api/watermark/sessions/:sessionId/close
func CloseSession(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	if err := applier.CloseSession(tenantID, c.Param("sessionId")); err != nil {
		respondWatermarkError(c, err)
		return
	}
	api.RespondSuccess(c, nil)
}

// GetConfig GET /api/watermark/config 租户默认配置（缺失则惰性创建）
func GetConfig(c *gin.Context) {
	tenantID, _, ok := api.Identity(c)
	if !ok {
		return
	}
	cfg, err := dbwatermark.GetDefaultConfig(tenantID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, cfg)
}

func respondWatermarkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dbwatermark.ErrConfigNotFound),
		errors.Is(err, watermark.ErrSessionNotInitialized):
		api.RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, watermark.ErrInstanceMismatch):
		api.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		api.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}
