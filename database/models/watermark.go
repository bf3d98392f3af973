package models

// WatermarkPattern 可见水印排布方式
type WatermarkPattern string

const (
	PatternTiled  WatermarkPattern = "TILED"
	PatternCorner WatermarkPattern = "CORNER"
	PatternCenter WatermarkPattern = "CENTER"
	PatternBorder WatermarkPattern = "BORDER"
)

// WatermarkField 水印内容字段
type WatermarkField string

const (
	FieldEmail      WatermarkField = "EMAIL"
	FieldUserID     WatermarkField = "USER_ID"
	FieldSessionID  WatermarkField = "SESSION_ID"
	FieldTimestamp  WatermarkField = "TIMESTAMP"
	FieldCustomText WatermarkField = "CUSTOM_TEXT"
	FieldClientIP   WatermarkField = "CLIENT_IP"
)

// EmbedMethod 隐形水印嵌入方式
type EmbedMethod string

const (
	EmbedLSB EmbedMethod = "LSB"
)

// EmbedStrength 嵌入强度，决定每个载体字节间隔
type EmbedStrength string

const (
	StrengthLow    EmbedStrength = "LOW"
	StrengthMedium EmbedStrength = "MEDIUM"
	StrengthHigh   EmbedStrength = "HIGH"
)

// WatermarkConfiguration 每租户的水印配置，一条标记为默认
type WatermarkConfiguration struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	Name      string `json:"name" gorm:"type:varchar(128)"`
	IsDefault bool   `json:"is_default" gorm:"index;default:false"`

	// 可见层
	Pattern       WatermarkPattern `json:"pattern" gorm:"type:varchar(16);default:'TILED'"`
	ContentFields StringArray      `json:"content_fields" gorm:"type:longtext"`
	CustomText    string           `json:"custom_text,omitempty" gorm:"type:varchar(255)"`
	Opacity       float64          `json:"opacity" gorm:"default:0.15"`
	FontSizePx    int              `json:"font_size_px" gorm:"default:14"`
	RotationDeg   int              `json:"rotation_deg" gorm:"default:-30"`
	SpacingPx     int              `json:"spacing_px" gorm:"default:220"`
	MarginPx      int              `json:"margin_px" gorm:"default:16"`

	// 隐形层
	Method       EmbedMethod   `json:"embed_method" gorm:"type:varchar(16);default:'LSB'"`
	Strength     EmbedStrength `json:"embed_strength" gorm:"type:varchar(16);default:'MEDIUM'"`
	Redundancy   int           `json:"redundancy" gorm:"default:3"`
	EncodeFields StringArray   `json:"encode_fields" gorm:"type:longtext"`

	CreatedAt LocalTime `json:"created_at"`
	UpdatedAt LocalTime `json:"updated_at"`
}

// WatermarkInstance 会话级水印实例，创建后除序号推进外只读
type WatermarkInstance struct {
	ID       string `json:"id" gorm:"type:varchar(36);primaryKey"`
	ConfigID string `json:"config_id" gorm:"type:varchar(36);index;not null"`

	TenantID  string `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	SessionID string `json:"session_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    string `json:"user_id" gorm:"type:varchar(64);not null"`
	UserEmail string `json:"user_email" gorm:"type:varchar(255)"`
	PodID     string `json:"pod_id" gorm:"type:varchar(64)"`
	ClientIP  string `json:"client_ip,omitempty" gorm:"type:varchar(45)"`

	KeyHash        string `json:"key_hash" gorm:"type:varchar(64)"`
	SequenceNumber uint64 `json:"sequence_number" gorm:"default:0"`

	CreatedAt LocalTime `json:"created_at"`
	UpdatedAt LocalTime `json:"updated_at"`
}

// TenantKey 租户对称密钥，密文由 securestore 主密钥加密
type TenantKey struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	KeyEnc   string `json:"-" gorm:"type:text;not null"`

	CreatedAt LocalTime `json:"created_at"`
}
