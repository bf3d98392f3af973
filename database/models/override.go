package models

// OverrideStatus 例外申请状态，PENDING 之外均为终态
type OverrideStatus string

const (
	OverridePending   OverrideStatus = "PENDING"
	OverrideApproved  OverrideStatus = "APPROVED"
	OverrideRejected  OverrideStatus = "REJECTED"
	OverrideCancelled OverrideStatus = "CANCELLED"
	OverrideExpired   OverrideStatus = "EXPIRED"
)

// IsTerminal 终态后记录不可变
func (s OverrideStatus) IsTerminal() bool {
	return s == OverrideApproved || s == OverrideRejected ||
		s == OverrideCancelled || s == OverrideExpired
}

// TransferType 触发例外申请的动作类型
type TransferType string

const (
	TransferClipboard     TransferType = "CLIPBOARD"
	TransferFileUpload    TransferType = "FILE_UPLOAD"
	TransferFileDownload  TransferType = "FILE_DOWNLOAD"
	TransferUSB           TransferType = "USB"
	TransferNetwork       TransferType = "NETWORK"
	TransferPrinting      TransferType = "PRINTING"
	TransferScreenCapture TransferType = "SCREEN_CAPTURE"
)

// TransferDirection 数据流向（相对沙箱会话）
type TransferDirection string

const (
	DirectionInbound  TransferDirection = "INBOUND"
	DirectionOutbound TransferDirection = "OUTBOUND"
)

// TransferOverrideRequest 被拦截动作的例外申请，创建后 24 小时过期
type TransferOverrideRequest struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	AttemptID *uint  `json:"attempt_id,omitempty" gorm:"index"`

	RequestedBy string            `json:"requested_by" gorm:"type:varchar(64);index;not null"`
	Type        TransferType      `json:"transfer_type" gorm:"type:varchar(32);not null"`
	Direction   TransferDirection `json:"direction" gorm:"type:varchar(16);not null"`
	FileName    string            `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FileSize    int64             `json:"file_size,omitempty"`
	Reason      string            `json:"reason" gorm:"type:text;not null"`

	Status        OverrideStatus `json:"status" gorm:"type:varchar(16);index;default:'PENDING'"`
	ProcessedBy   string         `json:"processed_by,omitempty" gorm:"type:varchar(64)"`
	ApprovalNotes string         `json:"approval_notes,omitempty" gorm:"type:text"`

	ExpiresAt   LocalTime  `json:"expires_at"`
	ProcessedAt *LocalTime `json:"processed_at,omitempty"`
	CreatedAt   LocalTime  `json:"created_at"`
	UpdatedAt   LocalTime  `json:"updated_at"`
}
