package policy

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"

	"github.com/skillpod-hq/sentinel/database/models"
)

// 已知 USB 大容量存储设备类标识，STORAGE_BLOCKED 模式下按子串匹配拦截
var storageClassSignatures = []string{
	"mass_storage",
	"mass storage",
	"usb_storage",
	"storage",
	"msc",
	"ums",
}

// EvaluateClipboardAccess 评估剪贴板操作。inbound 为宿主到沙箱方向。
func EvaluateClipboardAccess(p *models.SecurityPolicy, direction models.TransferDirection) Verdict {
	switch p.Clipboard {
	case models.ClipboardBlocked:
		return deny("Clipboard access is completely blocked")
	case models.ClipboardReadOnly:
		if direction == models.DirectionInbound {
			return allow("Pasting into pod is allowed")
		}
		return deny("Copying from pod is disabled")
	case models.ClipboardWriteOnly:
		if direction == models.DirectionOutbound {
			return allow("Copying from pod is allowed")
		}
		return deny("Pasting into pod is disabled")
	case models.ClipboardApprovalRequired:
		return needsApproval("Clipboard access requires approval")
	case models.ClipboardBidirectional:
		if direction == models.DirectionInbound {
			if p.ClipboardInbound {
				return allow("Pasting into pod is allowed")
			}
			return deny("Pasting into pod is disabled")
		}
		if p.ClipboardOutbound {
			return allow("Copying from pod is allowed")
		}
		return deny("Copying from pod is disabled")
	default:
		return deny("Unknown clipboard policy")
	}
}

// EvaluateFileTransfer 按方向选择上传/下载策略评估文件传输。
// 检查顺序固定：黑名单扩展名 → 白名单缺席 → 大小上限。
func EvaluateFileTransfer(p *models.SecurityPolicy, direction models.TransferDirection, fileName string, sizeBytes int64) Verdict {
	mode := p.FileDownload
	if direction == models.DirectionInbound {
		mode = p.FileUpload
	}

	switch mode {
	case models.FileTransferBlocked:
		return deny("File transfer is blocked")
	case models.FileTransferApprovalRequired:
		return needsApproval("File transfer requires approval")
	case models.FileTransferAllowed, models.FileTransferLoggedOnly:
		ext := strings.ToLower(filepath.Ext(fileName))
		for _, blocked := range p.BlockedFileTypes {
			if ext != "" && ext == strings.ToLower(blocked) {
				return deny(fmt.Sprintf("File type %s is blocked", ext))
			}
		}
		if len(p.AllowedFileTypes) > 0 {
			found := false
			for _, allowed := range p.AllowedFileTypes {
				if ext == strings.ToLower(allowed) {
					found = true
					break
				}
			}
			if !found {
				return deny(fmt.Sprintf("File type %s is not in the allowed list", ext))
			}
		}
		if p.MaxFileSizeBytes > 0 && sizeBytes > p.MaxFileSizeBytes {
			return deny(fmt.Sprintf("File size %d bytes exceeds maximum of %d bytes", sizeBytes, p.MaxFileSizeBytes))
		}
		v := allow("File transfer is allowed")
		if mode == models.FileTransferLoggedOnly {
			v.Logged = true
		}
		return v
	default:
		return deny("Unknown file transfer policy")
	}
}

// EvaluateNetworkAccess 评估目标域名访问。
// 黑名单命中优先于一切模式，包括 UNRESTRICTED。
func EvaluateNetworkAccess(p *models.SecurityPolicy, target string) Verdict {
	target = normalizeDomain(target)

	if p.Network == models.NetworkBlocked {
		return deny("Network access is completely blocked")
	}
	for _, blocked := range p.BlockedDomains {
		if blocked != "" && strings.Contains(target, normalizeDomain(blocked)) {
			return deny(fmt.Sprintf("Domain %s is blocked", target))
		}
	}

	switch p.Network {
	case models.NetworkRestricted:
		for _, allowed := range p.AllowedDomains {
			if allowed != "" && strings.Contains(target, normalizeDomain(allowed)) {
				return Verdict{Allowed: true, Reason: "Domain is in the allowed list", Logged: true}
			}
		}
		return deny(fmt.Sprintf("Domain %s is not in the allowed list", target))
	case models.NetworkMonitored:
		return Verdict{Allowed: true, Reason: "Network access is monitored", Logged: true}
	case models.NetworkUnrestricted:
		return allow("Network access is unrestricted")
	default:
		return deny("Unknown network policy")
	}
}

// EvaluateUSBDevice 评估 USB 设备接入
func EvaluateUSBDevice(p *models.SecurityPolicy, deviceID, deviceClass string) Verdict {
	switch p.USB {
	case models.USBBlocked:
		return deny("USB access is blocked")
	case models.USBStorageBlocked:
		class := strings.ToLower(deviceClass)
		for _, sig := range storageClassSignatures {
			if strings.Contains(class, sig) {
				return deny("USB storage devices are blocked")
			}
		}
		return allow("Non-storage USB device is allowed")
	case models.USBWhitelistOnly:
		if p.USBWhitelist.Contains(deviceID) {
			return allow("USB device is whitelisted")
		}
		return deny(fmt.Sprintf("USB device %s is not whitelisted", deviceID))
	case models.USBAllowed:
		return allow("USB access is allowed")
	default:
		return deny("Unknown USB policy")
	}
}

// EvaluatePrinting 评估打印。LOCAL_ONLY/PDF_ONLY 的具体落地由客户端执行，
// 本层只区分放行与否。
func EvaluatePrinting(p *models.SecurityPolicy) Verdict {
	switch p.Printing {
	case models.PrintingBlocked:
		return deny("Printing is blocked")
	case models.PrintingApprovalRequired:
		return needsApproval("Printing requires approval")
	case models.PrintingLocalOnly, models.PrintingPDFOnly, models.PrintingAllowed:
		return allow(fmt.Sprintf("Printing is allowed (%s)", p.Printing))
	default:
		return deny("Unknown printing policy")
	}
}

// EvaluateScreenCapture 评估截屏
func EvaluateScreenCapture(p *models.SecurityPolicy) Verdict {
	if p.BlockScreenCapture {
		return deny("Screen capture is blocked")
	}
	return allow("Screen capture is allowed")
}

// Evaluate 按请求类型分发到对应评估函数
func Evaluate(p *models.SecurityPolicy, req Request) Verdict {
	switch req.Type {
	case models.TransferClipboard:
		return EvaluateClipboardAccess(p, req.Direction)
	case models.TransferFileUpload:
		return EvaluateFileTransfer(p, models.DirectionInbound, req.FileName, req.FileSize)
	case models.TransferFileDownload:
		return EvaluateFileTransfer(p, models.DirectionOutbound, req.FileName, req.FileSize)
	case models.TransferNetwork:
		return EvaluateNetworkAccess(p, req.Target)
	case models.TransferUSB:
		return EvaluateUSBDevice(p, req.DeviceID, req.DeviceClass)
	case models.TransferPrinting:
		return EvaluatePrinting(p)
	case models.TransferScreenCapture:
		return EvaluateScreenCapture(p)
	default:
		return deny(fmt.Sprintf("Unknown transfer type: %s", req.Type))
	}
}

// normalizeDomain 小写并做 IDNA ASCII 归一化，失败时退回小写原值
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil && ascii != "" {
		return ascii
	}
	return domain
}
