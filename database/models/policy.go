package models

// ClipboardPolicy 剪贴板策略
type ClipboardPolicy string

const (
	ClipboardBlocked          ClipboardPolicy = "BLOCKED"
	ClipboardReadOnly         ClipboardPolicy = "READ_ONLY"
	ClipboardWriteOnly        ClipboardPolicy = "WRITE_ONLY"
	ClipboardBidirectional    ClipboardPolicy = "BIDIRECTIONAL"
	ClipboardApprovalRequired ClipboardPolicy = "APPROVAL_REQUIRED"
)

// FileTransferPolicy 文件上传/下载策略
type FileTransferPolicy string

const (
	FileTransferBlocked          FileTransferPolicy = "BLOCKED"
	FileTransferAllowed          FileTransferPolicy = "ALLOWED"
	FileTransferApprovalRequired FileTransferPolicy = "APPROVAL_REQUIRED"
	FileTransferLoggedOnly       FileTransferPolicy = "LOGGED_ONLY"
)

// PrintingPolicy 打印策略
type PrintingPolicy string

const (
	PrintingBlocked          PrintingPolicy = "BLOCKED"
	PrintingLocalOnly        PrintingPolicy = "LOCAL_ONLY"
	PrintingPDFOnly          PrintingPolicy = "PDF_ONLY"
	PrintingAllowed          PrintingPolicy = "ALLOWED"
	PrintingApprovalRequired PrintingPolicy = "APPROVAL_REQUIRED"
)

// USBPolicy USB 外设策略
type USBPolicy string

const (
	USBBlocked        USBPolicy = "BLOCKED"
	USBStorageBlocked USBPolicy = "STORAGE_BLOCKED"
	USBWhitelistOnly  USBPolicy = "WHITELIST_ONLY"
	USBAllowed        USBPolicy = "ALLOWED"
)

// NetworkPolicy 网络访问策略
type NetworkPolicy string

const (
	NetworkBlocked      NetworkPolicy = "BLOCKED"
	NetworkRestricted   NetworkPolicy = "RESTRICTED"
	NetworkMonitored    NetworkPolicy = "MONITORED"
	NetworkUnrestricted NetworkPolicy = "UNRESTRICTED"
)

// SecurityPolicy 每租户一条的 DLP 管控策略，评估期间不可变
type SecurityPolicy struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name     string `json:"name" gorm:"type:varchar(128)"`

	// 剪贴板：BIDIRECTIONAL 模式下由两个布尔开关细分方向
	Clipboard         ClipboardPolicy `json:"clipboard" gorm:"type:varchar(32);default:'BLOCKED'"`
	ClipboardInbound  bool            `json:"clipboard_inbound" gorm:"default:false"`
	ClipboardOutbound bool            `json:"clipboard_outbound" gorm:"default:false"`

	// 文件传输
	FileDownload     FileTransferPolicy `json:"file_download" gorm:"type:varchar(32);default:'BLOCKED'"`
	FileUpload       FileTransferPolicy `json:"file_upload" gorm:"type:varchar(32);default:'BLOCKED'"`
	AllowedFileTypes StringArray        `json:"allowed_file_types" gorm:"type:longtext"`
	BlockedFileTypes StringArray        `json:"blocked_file_types" gorm:"type:longtext"`
	MaxFileSizeBytes int64              `json:"max_file_size_bytes" gorm:"default:0"` // 0 表示不限制

	// 打印
	Printing PrintingPolicy `json:"printing" gorm:"type:varchar(32);default:'BLOCKED'"`

	// USB
	USB          USBPolicy   `json:"usb" gorm:"type:varchar(32);default:'BLOCKED'"`
	USBWhitelist StringArray `json:"usb_whitelist" gorm:"type:longtext"`

	// 网络
	Network        NetworkPolicy `json:"network" gorm:"type:varchar(32);default:'RESTRICTED'"`
	AllowedDomains StringArray   `json:"allowed_domains" gorm:"type:longtext"`
	BlockedDomains StringArray   `json:"blocked_domains" gorm:"type:longtext"`

	// 其他
	BlockScreenCapture bool `json:"block_screen_capture" gorm:"default:true"`
	WatermarkEnabled   bool `json:"watermark_enabled" gorm:"default:true"`

	CreatedAt LocalTime `json:"created_at"`
	UpdatedAt LocalTime `json:"updated_at"`
}
