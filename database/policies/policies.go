package policies

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/skillpod-hq/sentinel/database/dbcore"
	"github.com/skillpod-hq/sentinel/database/models"
)

const cacheTTL = 30 * time.Second

var (
	cacheMu sync.RWMutex
	cached  = make(map[string]cachedPolicy)
)

type cachedPolicy struct {
	policy    *models.SecurityPolicy
	fetchedAt time.Time
}

// DefaultPolicy 出厂默认：全向量最严格，水印开启
func DefaultPolicy(tenantID string) models.SecurityPolicy {
	return models.SecurityPolicy{
		TenantID:           tenantID,
		Name:               "default",
		Clipboard:          models.ClipboardBlocked,
		FileDownload:       models.FileTransferBlocked,
		FileUpload:         models.FileTransferBlocked,
		AllowedFileTypes:   models.StringArray{},
		BlockedFileTypes:   models.StringArray{},
		Printing:           models.PrintingBlocked,
		USB:                models.USBBlocked,
		USBWhitelist:       models.StringArray{},
		Network:            models.NetworkRestricted,
		AllowedDomains:     models.StringArray{},
		BlockedDomains:     models.StringArray{},
		BlockScreenCapture: true,
		WatermarkEnabled:   true,
	}
}

// GetPolicy 读取租户策略，无记录时落库一条默认策略
func GetPolicy(tenantID string) (*models.SecurityPolicy, error) {
	cacheMu.RLock()
	if entry, ok := cached[tenantID]; ok && time.Since(entry.fetchedAt) < cacheTTL {
		cacheMu.RUnlock()
		return entry.policy, nil
	}
	cacheMu.RUnlock()

	db := dbcore.GetDBInstance()
	var p models.SecurityPolicy
	err := db.Where("tenant_id = ?", tenantID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = DefaultPolicy(tenantID)
		if err := db.Create(&p).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cached[tenantID] = cachedPolicy{policy: &p, fetchedAt: time.Now()}
	cacheMu.Unlock()
	return &p, nil
}

// UpdatePolicy 更新租户策略并使缓存失效
func UpdatePolicy(p *models.SecurityPolicy) error {
	db := dbcore.GetDBInstance()
	if err := db.Save(p).Error; err != nil {
		return err
	}
	InvalidateCache(p.TenantID)
	return nil
}

// InvalidateCache 清除租户策略缓存
func InvalidateCache(tenantID string) {
	cacheMu.Lock()
	delete(cached, tenantID)
	cacheMu.Unlock()
}
