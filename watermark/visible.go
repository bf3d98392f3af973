package watermark

import (
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/skillpod-hq/sentinel/database/models"
)

// Identity 会话身份载荷，可见与隐形两层共用
type Identity struct {
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	SessionID string    `json:"session_id"`
	TenantID  string    `json:"tenant_id"`
	PodID     string    `json:"pod_id"`
	ClientIP  string    `json:"client_ip"`
	Timestamp time.Time `json:"timestamp"`
}

// Overlay 可见水印渲染产物，注入会话 DOM
type Overlay struct {
	CSS              string `json:"css"`
	HTML             string `json:"html"`
	VerificationHash string `json:"verification_hash"`
}

// BuildWatermarkText 按配置顺序拼接水印文本，字段间以 " | " 分隔
func BuildWatermarkText(cfg *models.WatermarkConfiguration, id Identity) string {
	parts := make([]string, 0, len(cfg.ContentFields))
	for _, field := range cfg.ContentFields {
		switch models.WatermarkField(field) {
		case models.FieldEmail:
			if id.UserEmail != "" {
				parts = append(parts, id.UserEmail)
			}
		case models.FieldUserID:
			if id.UserID != "" {
				parts = append(parts, id.UserID)
			}
		case models.FieldSessionID:
			sid := id.SessionID
			if len(sid) > 8 {
				sid = sid[:8]
			}
			if sid != "" {
				parts = append(parts, "SID:"+sid)
			}
		case models.FieldTimestamp:
			parts = append(parts, id.Timestamp.Format("2006-01-02 15:04:05"))
		case models.FieldCustomText:
			if cfg.CustomText != "" {
				parts = append(parts, cfg.CustomText)
			}
		case models.FieldClientIP:
			if id.ClientIP != "" {
				parts = append(parts, id.ClientIP)
			}
		}
	}
	return strings.Join(parts, " | ")
}

// RenderOverlay 按配置的排布方式生成 CSS + HTML
func RenderOverlay(cfg *models.WatermarkConfiguration, id Identity) Overlay {
	text := html.EscapeString(BuildWatermarkText(cfg, id))

	var css, markup string
	switch cfg.Pattern {
	case models.PatternCorner:
		css, markup = renderCorner(cfg, text)
	case models.PatternCenter:
		css, markup = renderCenter(cfg, text)
	case models.PatternBorder:
		css, markup = renderBorder(cfg, text)
	default:
		css, markup = renderTiled(cfg, text)
	}

	return Overlay{
		CSS:              css,
		HTML:             markup,
		VerificationHash: VerificationHash(cfg, id),
	}
}

// VerificationHash 对稳定字段子集取哈希，用于核对渲染载荷是否被篡改
func VerificationHash(cfg *models.WatermarkConfiguration, id Identity) string {
	material := fmt.Sprintf("%s|%s|%.4f|%s|%s|%d",
		cfg.Pattern,
		strings.Join(cfg.ContentFields, ","),
		cfg.Opacity,
		id.UserID,
		id.SessionID,
		id.Timestamp.UnixMilli(),
	)
	sum := blake3.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// renderTiled 旋转平铺网格 + 斜纹底 + 100ms 透明度扰动（反静态截屏）
func renderTiled(cfg *models.WatermarkConfiguration, text string) (string, string) {
	css := fmt.Sprintf(`.spwm-overlay {
  position: fixed; inset: 0; pointer-events: none; z-index: 2147483646;
  overflow: hidden;
  background-image: repeating-linear-gradient(45deg,
    rgba(128,128,128,%.3f) 0px, rgba(128,128,128,%.3f) 1px,
    transparent 1px, transparent 24px);
  animation: spwm-flicker 0.1s infinite alternate;
}
.spwm-tile {
  position: absolute;
  font: %dpx monospace; color: rgba(100,100,100,%.3f);
  transform: rotate(%ddeg); white-space: nowrap; user-select: none;
}
@keyframes spwm-flicker {
  from { opacity: 1; }
  to { opacity: 0.97; }
}`,
		cfg.Opacity/4, cfg.Opacity/4, cfg.FontSizePx, cfg.Opacity, cfg.RotationDeg)

	spacing := cfg.SpacingPx
	if spacing <= 0 {
		spacing = 220
	}
	var b strings.Builder
	b.WriteString(`<div class="spwm-overlay" aria-hidden="true">`)
	// 视口按 1920x1080 预铺，客户端随窗口缩放复用同一 tile 集
	for y := 0; y < 1080+spacing; y += spacing {
		for x := 0; x < 1920+spacing; x += spacing {
			fmt.Fprintf(&b, `<span class="spwm-tile" style="left:%dpx;top:%dpx">%s</span>`, x, y, text)
		}
	}
	b.WriteString(`</div>`)
	return css, b.String()
}

// renderCorner 两个对角的小标签
func renderCorner(cfg *models.WatermarkConfiguration, text string) (string, string) {
	margin := cfg.MarginPx
	if margin <= 0 {
		margin = 16
	}
	css := fmt.Sprintf(`.spwm-overlay {
  position: fixed; inset: 0; pointer-events: none; z-index: 2147483646;
}
.spwm-corner {
  position: absolute;
  font: %dpx monospace; color: rgba(100,100,100,%.3f);
  white-space: nowrap; user-select: none;
}
.spwm-corner.top-left { top: %dpx; left: %dpx; }
.spwm-corner.bottom-right { bottom: %dpx; right: %dpx; }`,
		cfg.FontSizePx, cfg.Opacity, margin, margin, margin, margin)

	markup := fmt.Sprintf(`<div class="spwm-overlay" aria-hidden="true">`+
		`<span class="spwm-corner top-left">%s</span>`+
		`<span class="spwm-corner bottom-right">%s</span></div>`, text, text)
	return css, markup
}

// renderCenter 单个居中大字号旋转标签
func renderCenter(cfg *models.WatermarkConfiguration, text string) (string, string) {
	css := fmt.Sprintf(`.spwm-overlay {
  position: fixed; inset: 0; pointer-events: none; z-index: 2147483646;
  display: flex; align-items: center; justify-content: center;
}
.spwm-center {
  font: %dpx monospace; color: rgba(100,100,100,%.3f);
  transform: rotate(%ddeg); white-space: nowrap; user-select: none;
}`,
		cfg.FontSizePx*3, cfg.Opacity, cfg.RotationDeg)

	markup := fmt.Sprintf(`<div class="spwm-overlay" aria-hidden="true">`+
		`<span class="spwm-center">%s</span></div>`, text)
	return css, markup
}

// renderBorder 四边滚动文本
func renderBorder(cfg *models.WatermarkConfiguration, text string) (string, string) {
	repeated := strings.Repeat(text+"   ", 8)
	css := fmt.Sprintf(`.spwm-overlay {
  position: fixed; inset: 0; pointer-events: none; z-index: 2147483646;
  overflow: hidden;
}
.spwm-edge {
  position: absolute;
  font: %dpx monospace; color: rgba(100,100,100,%.3f);
  white-space: nowrap; user-select: none;
  animation: spwm-scroll 30s linear infinite;
}
.spwm-edge.top { top: 0; }
.spwm-edge.bottom { bottom: 0; }
.spwm-edge.left { left: 0; transform-origin: top left; transform: rotate(90deg); }
.spwm-edge.right { right: 0; transform-origin: top right; transform: rotate(-90deg); }
@keyframes spwm-scroll {
  from { translate: 0; }
  to { translate: -50%%; }
}`,
		cfg.FontSizePx, cfg.Opacity)

	var b strings.Builder
	b.WriteString(`<div class="spwm-overlay" aria-hidden="true">`)
	for _, edge := range []string{"top", "bottom", "left", "right"} {
		fmt.Fprintf(&b, `<span class="spwm-edge %s">%s</span>`, edge, repeated)
	}
	b.WriteString(`</div>`)
	return css, b.String()
}
