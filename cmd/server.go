package cmd

import (
	"log"

	"github.com/gin-gonic/gin"

	apidlp "github.com/skillpod-hq/sentinel/api/dlp"
	apioverride "github.com/skillpod-hq/sentinel/api/override"
	apiwatermark "github.com/skillpod-hq/sentinel/api/watermark"
	"github.com/skillpod-hq/sentinel/database/dbcore"
	dboverride "github.com/skillpod-hq/sentinel/database/override"
	"github.com/skillpod-hq/sentinel/utils/geoip"
	"github.com/skillpod-hq/sentinel/ws"
)

func runServer() {
	if err := dbcore.Initialize(flagDBDriver, flagDBDSN); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	geoip.Load(flagGeoIPPath)
	dboverride.StartReaper()
	defer dboverride.StopReaper()

	r := gin.Default()
	RegisterRoutes(r)

	log.Printf("sentinel listening on %s", flagListen)
	if err := r.Run(flagListen); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// RegisterRoutes 挂载全部 HTTP 路由（测试复用）
func RegisterRoutes(r *gin.Engine) {
	apiGroup := r.Group("/api")

	overrides := apiGroup.Group("/override-requests")
	{
		overrides.POST("", apioverride.Create)
		overrides.GET("", apioverride.List)
		overrides.GET("/pending-count", apioverride.PendingCount)
		overrides.GET("/:id", apioverride.Get)
		overrides.POST("/:id/approve", apioverride.Approve)
		overrides.POST("/:id/reject", apioverride.Reject)
		overrides.POST("/:id/cancel", apioverride.Cancel)
	}

	dlp := apiGroup.Group("/dlp")
	{
		dlp.POST("/evaluate", apidlp.Evaluate)
		dlp.GET("/attempts", apidlp.ListAttempts)
	}
	apiGroup.GET("/policies/current", apidlp.GetCurrentPolicy)

	wm := apiGroup.Group("/watermark")
	{
		wm.POST("/sessions", apiwatermark.InitSession)
		wm.POST("/sessions/:sessionId/refresh", apiwatermark.RefreshOverlay)
		wm.POST("/sessions/:sessionId/close", apiwatermark.CloseSession)
		wm.GET("/config", apiwatermark.GetConfig)
	}

	apiGroup.GET("/ws/notifications", ws.HandleNotifications)
}
