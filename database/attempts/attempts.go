package attempts

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skillpod-hq/sentinel/database/dbcore"
	"github.com/skillpod-hq/sentinel/database/models"
	"github.com/skillpod-hq/sentinel/utils/geoip"
)

var ErrNotFound = errors.New("transfer attempt not found")

// Record 写入一条审计流水，只追加。ClientIP 可解析时附带国家归属。
func Record(attempt *models.DataTransferAttempt) error {
	if attempt.ClientIP != "" && attempt.ClientCountry == "" {
		attempt.ClientCountry = geoip.CountryCode(attempt.ClientIP)
	}
	return dbcore.GetDBInstance().Create(attempt).Error
}

// Get 按 ID 读取租户内的流水记录
func Get(tenantID string, id uint) (*models.DataTransferAttempt, error) {
	db := dbcore.GetDBInstance()
	var attempt models.DataTransferAttempt
	err := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// MarkOverride 批准例外后回填授权人与理由
func MarkOverride(tenantID string, id uint, approvedBy, reason string) error {
	db := dbcore.GetDBInstance()
	res := db.Model(&models.DataTransferAttempt{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"override_approved": true,
			"override_by":       approvedBy,
			"override_reason":   reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter 审计查询条件
type ListFilter struct {
	UserID    string
	Type      models.TransferType
	Action    models.AttemptAction
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// List 分页查询租户审计流水
func List(tenantID string, filter ListFilter) ([]models.DataTransferAttempt, int64, error) {
	db := dbcore.GetDBInstance()
	query := db.Model(&models.DataTransferAttempt{}).Where("tenant_id = ?", tenantID)
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
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
	var list []models.DataTransferAttempt
	err := query.Order("id desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}
