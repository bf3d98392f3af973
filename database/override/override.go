package override

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillpod-hq/sentinel/database/attempts"
	"github.com/skillpod-hq/sentinel/database/dbcore"
	"github.com/skillpod-hq/sentinel/database/models"
	messageevent "github.com/skillpod-hq/sentinel/database/models/messageevent"
	"github.com/skillpod-hq/sentinel/ws"
)

// RequestTTL 例外申请有效期，创建时即固定
const RequestTTL = 24 * time.Hour

var (
	ErrNotFound       = errors.New("override request not found")
	ErrInvalidState   = errors.New("override request is not pending")
	ErrExpired        = errors.New("override request has expired")
	ErrUnauthorized   = errors.New("only the original requester may cancel")
	ErrInvalidAttempt = errors.New("linked attempt is not blocked or quarantined")
)

// Create 创建例外申请。关联流水时校验其动作必须为 BLOCKED/QUARANTINED。
func Create(req *models.TransferOverrideRequest) error {
	db := dbcore.GetDBInstance()

	if req.AttemptID != nil {
		attempt, err := attempts.Get(req.TenantID, *req.AttemptID)
		if err != nil {
			return err
		}
		if attempt.Action != models.AttemptBlocked && attempt.Action != models.AttemptQuarantined {
			return ErrInvalidAttempt
		}
	}

	req.ID = uuid.New().String()
	req.Status = models.OverridePending
	req.ExpiresAt = models.LocalTime(time.Now().Add(RequestTTL))
	if err := db.Create(req).Error; err != nil {
		return err
	}

	ws.NotifyTenantApprovers(req.TenantID, messageevent.OverrideRequested, req)
	return nil
}

// Get 读取租户内的申请记录
func Get(tenantID, id string) (*models.TransferOverrideRequest, error) {
	db := dbcore.GetDBInstance()
	var req models.TransferOverrideRequest
	err := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve 批准申请。过期的 PENDING 记录先转 EXPIRED 再报错；
// 并发转移通过 status 条件更新串行化，至多一个动作成功。
func Approve(tenantID, id, approvedBy, notes string) (*models.TransferOverrideRequest, error) {
	req, err := Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.OverridePending {
		return nil, ErrInvalidState
	}
	if time.Now().After(req.ExpiresAt.Time()) {
		if err := expireRecord(req); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	if err := transition(req, models.OverrideApproved, approvedBy, notes); err != nil {
		return nil, err
	}

	if req.AttemptID != nil {
		if err := attempts.MarkOverride(tenantID, *req.AttemptID, approvedBy, notes); err != nil {
			return nil, fmt.Errorf("failed to mark linked attempt: %w", err)
		}
	}

	ws.NotifyUser(req.TenantID, req.RequestedBy, messageevent.OverrideApproved, req)
	return req, nil
}

// Reject 驳回申请，关联流水保持拦截状态不变
func Reject(tenantID, id, rejectedBy, reason string) (*models.TransferOverrideRequest, error) {
	req, err := Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.OverridePending {
		return nil, ErrInvalidState
	}
	if time.Now().After(req.ExpiresAt.Time()) {
		if err := expireRecord(req); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	if err := transition(req, models.OverrideRejected, rejectedBy, reason); err != nil {
		return nil, err
	}

	ws.NotifyUser(req.TenantID, req.RequestedBy, messageevent.OverrideRejected, req)
	return req, nil
}

// Cancel 仅原申请人可撤销
func Cancel(tenantID, id, actor string) (*models.TransferOverrideRequest, error) {
	req, err := Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.RequestedBy != actor {
		return nil, ErrUnauthorized
	}
	if req.Status != models.OverridePending {
		return nil, ErrInvalidState
	}

	if err := transition(req, models.OverrideCancelled, actor, ""); err != nil {
		return nil, err
	}

	ws.NotifyTenantApprovers(req.TenantID, messageevent.OverrideCancelled, req)
	return req, nil
}

// transition PENDING → 终态的条件更新；0 行受影响说明已被并发处理
func transition(req *models.TransferOverrideRequest, to models.OverrideStatus, actor, notes string) error {
	db := dbcore.GetDBInstance()
	now := models.LocalTime(time.Now())
	res := db.Model(&models.TransferOverrideRequest{}).
		Where("id = ? AND status = ?", req.ID, models.OverridePending).
		Updates(map[string]interface{}{
			"status":         to,
			"processed_by":   actor,
			"approval_notes": notes,
			"processed_at":   time.Time(now),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	req.Status = to
	req.ProcessedBy = actor
	req.ApprovalNotes = notes
	req.ProcessedAt = &now
	return nil
}

func expireRecord(req *models.TransferOverrideRequest) error {
	db := dbcore.GetDBInstance()
	res := db.Model(&models.TransferOverrideRequest{}).
		Where("id = ? AND status = ?", req.ID, models.OverridePending).
		Update("status", models.OverrideExpired)
	if res.Error != nil {
		return res.Error
	}
	req.Status = models.OverrideExpired
	ws.NotifyUser(req.TenantID, req.RequestedBy, messageevent.OverrideExpired, req)
	return nil
}

// ListFilter 查询条件
type ListFilter struct {
	Status      models.OverrideStatus
	RequestedBy string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	Limit       int
}

// List 分页查询租户例外申请
func List(tenantID string, filter ListFilter) ([]models.TransferOverrideRequest, int64, error) {
	db := dbcore.GetDBInstance()
	query := db.Model(&models.TransferOverrideRequest{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequestedBy != "" {
		query = query.Where("requested_by = ?", filter.RequestedBy)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	var list []models.TransferOverrideRequest
	err := query.Order("created_at desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}

// PendingCount 未过期的待处理申请数（面板展示用）
func PendingCount(tenantID string) (int64, error) {
	db := dbcore.GetDBInstance()
	var count int64
	err := db.Model(&models.TransferOverrideRequest{}).
		Where("tenant_id = ? AND status = ? AND expires_at > ?",
			tenantID, models.OverridePending, time.Now()).
		Count(&count).Error
	return count, err
}

// ExpireStale 批量转置已过期的 PENDING 记录，返回处理条数。
// 懒惰过期已保证正确性，这里只是让报表及时。
func ExpireStale() (int64, error) {
	db := dbcore.GetDBInstance()
	var stale []models.TransferOverrideRequest
	if err := db.Where("status = ? AND expires_at <= ?", models.OverridePending, time.Now()).
		Find(&stale).Error; err != nil {
		return 0, err
	}
	var expired int64
	for i := range stale {
		res := db.Model(&models.TransferOverrideRequest{}).
			Where("id = ? AND status = ?", stale[i].ID, models.OverridePending).
			Update("status", models.OverrideExpired)
		if res.Error != nil {
			return expired, res.Error
		}
		if res.RowsAffected > 0 {
			expired++
			ws.NotifyUser(stale[i].TenantID, stale[i].RequestedBy, messageevent.OverrideExpired, &stale[i])
		}
	}
	return expired, nil
}
