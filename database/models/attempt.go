package models

// AttemptAction 评估结果归档动作
type AttemptAction string

const (
	AttemptAllowed     AttemptAction = "ALLOWED"
	AttemptBlocked     AttemptAction = "BLOCKED"
	AttemptQuarantined AttemptAction = "QUARANTINED"
	AttemptLogged      AttemptAction = "LOGGED"
)

// DataTransferAttempt 审计流水，只追加；批准例外后回填 override 字段
type DataTransferAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID  string `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	SessionID string `json:"session_id" gorm:"type:varchar(64);index"`
	UserID    string `json:"user_id" gorm:"type:varchar(64);index;not null"`

	Type      TransferType      `json:"transfer_type" gorm:"type:varchar(32);not null"`
	Direction TransferDirection `json:"direction" gorm:"type:varchar(16)"`
	Action    AttemptAction     `json:"action" gorm:"type:varchar(16);index;not null"`
	Reason    string            `json:"reason" gorm:"type:text"`

	FileName string `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FileSize int64  `json:"file_size,omitempty"`
	Target   string `json:"target,omitempty" gorm:"type:varchar(255)"` // 域名 / 设备 ID 等

	ClientIP      string `json:"client_ip,omitempty" gorm:"type:varchar(45)"`
	ClientCountry string `json:"client_country,omitempty" gorm:"type:varchar(2)"`

	OverrideApproved bool   `json:"override_approved" gorm:"default:false"`
	OverrideBy       string `json:"override_by,omitempty" gorm:"type:varchar(64)"`
	OverrideReason   string `json:"override_reason,omitempty" gorm:"type:text"`

	CreatedAt LocalTime `json:"created_at"`
}
