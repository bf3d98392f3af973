package policy

import "github.com/skillpod-hq/sentinel/database/models"

// Verdict 单次评估结果。评估是 (policy, request) 的纯函数，不产生副作用。
type Verdict struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason"`
	Logged           bool   `json:"logged"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
}

func allow(reason string) Verdict {
	return Verdict{Allowed: true, Reason: reason}
}

func deny(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}

func needsApproval(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason, RequiresApproval: true}
}

// Request 通用评估请求，由 Type 决定哪些字段有意义
type Request struct {
	Type        models.TransferType      `json:"transfer_type" binding:"required"`
	Direction   models.TransferDirection `json:"direction"`
	FileName    string                   `json:"file_name,omitempty"`
	FileSize    int64                    `json:"file_size,omitempty"`
	Target      string                   `json:"target,omitempty"`
	DeviceID    string                   `json:"device_id,omitempty"`
	DeviceClass string                   `json:"device_class,omitempty"`
}
