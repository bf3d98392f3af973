package watermark

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillpod-hq/sentinel/database/dbcore"
	"github.com/skillpod-hq/sentinel/database/models"
)

var (
	ErrConfigNotFound   = errors.New("watermark configuration not found")
	ErrInstanceNotFound = errors.New("watermark instance not found")
)

// DefaultConfiguration 出厂默认水印配置
func DefaultConfiguration(tenantID string) models.WatermarkConfiguration {
	return models.WatermarkConfiguration{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      "default",
		IsDefault: true,
		Pattern:   models.PatternTiled,
		ContentFields: models.StringArray{
			string(models.FieldEmail),
			string(models.FieldTimestamp),
		},
		Opacity:     0.15,
		FontSizePx:  14,
		RotationDeg: -30,
		SpacingPx:   220,
		MarginPx:    16,
		Method:      models.EmbedLSB,
		Strength:    models.StrengthMedium,
		Redundancy:  3,
		EncodeFields: models.StringArray{
			string(models.FieldUserID),
			string(models.FieldSessionID),
			string(models.FieldTimestamp),
		},
	}
}

// GetConfig 按 ID 读取配置，必须属于指定租户
func GetConfig(tenantID, id string) (*models.WatermarkConfiguration, error) {
	db := dbcore.GetDBInstance()
	var cfg models.WatermarkConfiguration
	err := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetDefaultConfig 读取租户默认配置，缺失时按出厂默认惰性创建
func GetDefaultConfig(tenantID string) (*models.WatermarkConfiguration, error) {
	db := dbcore.GetDBInstance()
	var cfg models.WatermarkConfiguration
	err := db.Where("tenant_id = ? AND is_default = ?", tenantID, true).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = DefaultConfiguration(tenantID)
		if err := db.Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig 更新配置
func SaveConfig(cfg *models.WatermarkConfiguration) error {
	return dbcore.GetDBInstance().Save(cfg).Error
}

// CreateInstance 落库会话水印实例，session_id 唯一索引保证每会话一条
func CreateInstance(instance *models.WatermarkInstance) error {
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	return dbcore.GetDBInstance().Create(instance).Error
}

// GetInstanceBySession 按会话读取实例
func GetInstanceBySession(tenantID, sessionID string) (*models.WatermarkInstance, error) {
	db := dbcore.GetDBInstance()
	var instance models.WatermarkInstance
	err := db.Where("session_id = ? AND tenant_id = ?", sessionID, tenantID).First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// FlushSequence 回写序号（会话结束或周期落盘时调用，不在帧路径上）
func FlushSequence(instanceID string, seq uint64) error {
	db := dbcore.GetDBInstance()
	return db.Model(&models.WatermarkInstance{}).
		Where("id = ?", instanceID).
		Updates(map[string]interface{}{
			"sequence_number": seq,
			"updated_at":      time.Now(),
		}).Error
}
