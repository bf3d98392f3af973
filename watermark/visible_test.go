package watermark

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillpod-hq/sentinel/database/models"
)

func visibleConfig(pattern models.WatermarkPattern, fields ...string) *models.WatermarkConfiguration {
	return &models.WatermarkConfiguration{
		Pattern:       pattern,
		ContentFields: models.StringArray(fields),
		Opacity:       0.15,
		FontSizePx:    14,
		RotationDeg:   -30,
		SpacingPx:     220,
		MarginPx:      16,
	}
}

func TestBuildWatermarkText(t *testing.T) {
	id := testIdentity()

	t.Run("按配置顺序拼接", func(t *testing.T) {
		cfg := visibleConfig(models.PatternTiled,
			string(models.FieldEmail), string(models.FieldSessionID), string(models.FieldTimestamp))
		text := BuildWatermarkText(cfg, id)
		assert.Equal(t, "alice@example.com | SID:sess-abc | 2026-08-01 12:30:00", text)
	})

	t.Run("会话 ID 截取前 8 位", func(t *testing.T) {
		cfg := visibleConfig(models.PatternTiled, string(models.FieldSessionID))
		assert.Equal(t, "SID:sess-abc", BuildWatermarkText(cfg, id))
	})

	t.Run("空字段跳过", func(t *testing.T) {
		cfg := visibleConfig(models.PatternTiled,
			string(models.FieldClientIP), string(models.FieldEmail))
		empty := id
		empty.ClientIP = ""
		assert.Equal(t, "alice@example.com", BuildWatermarkText(cfg, empty))
	})

	t.Run("自定义文本", func(t *testing.T) {
		cfg := visibleConfig(models.PatternTiled, string(models.FieldCustomText))
		cfg.CustomText = "CONFIDENTIAL"
		assert.Equal(t, "CONFIDENTIAL", BuildWatermarkText(cfg, id))
	})
}

func TestRenderOverlayPatterns(t *testing.T) {
	id := testIdentity()
	for _, pattern := range []models.WatermarkPattern{
		models.PatternTiled, models.PatternCorner, models.PatternCenter, models.PatternBorder,
	} {
		t.Run(string(pattern), func(t *testing.T) {
			cfg := visibleConfig(pattern, string(models.FieldEmail))
			overlay := RenderOverlay(cfg, id)
			assert.NotEmpty(t, overlay.CSS)
			assert.Contains(t, overlay.HTML, "alice@example.com")
			assert.Contains(t, overlay.HTML, "spwm-overlay")
			assert.NotEmpty(t, overlay.VerificationHash)
		})
	}
}

func TestRenderOverlayEscapesHTML(t *testing.T) {
	cfg := visibleConfig(models.PatternCenter, string(models.FieldEmail))
	id := testIdentity()
	id.UserEmail = `<script>alert("x")</script>`
	overlay := RenderOverlay(cfg, id)
	assert.NotContains(t, overlay.HTML, "<script>")
	assert.Contains(t, overlay.HTML, "&lt;script&gt;")
}

func TestTiledOverlayHasAntiScreenshotAnimation(t *testing.T) {
	cfg := visibleConfig(models.PatternTiled, string(models.FieldEmail))
	overlay := RenderOverlay(cfg, testIdentity())
	assert.Contains(t, overlay.CSS, "spwm-flicker")
	assert.Contains(t, overlay.CSS, "0.1s")
	assert.Contains(t, overlay.CSS, "repeating-linear-gradient")
	// 平铺应产生多个 tile
	assert.Greater(t, strings.Count(overlay.HTML, "spwm-tile"), 10)
}

func TestVerificationHashStability(t *testing.T) {
	cfg := visibleConfig(models.PatternTiled, string(models.FieldEmail))
	id := testIdentity()

	first := VerificationHash(cfg, id)
	assert.Equal(t, first, VerificationHash(cfg, id))

	// 任一稳定字段变化哈希必变
	changed := id
	changed.UserID = "user-2"
	assert.NotEqual(t, first, VerificationHash(cfg, changed))

	changed = id
	changed.Timestamp = id.Timestamp.Add(time.Millisecond)
	assert.NotEqual(t, first, VerificationHash(cfg, changed))

	cfg2 := visibleConfig(models.PatternCorner, string(models.FieldEmail))
	assert.NotEqual(t, first, VerificationHash(cfg2, id))
}
