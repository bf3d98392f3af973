package keys

import (
	"encoding/base64"
	"errors"

	"gorm.io/gorm"

	"github.com/skillpod-hq/sentinel/database/dbcore"
	"github.com/skillpod-hq/sentinel/database/models"
	"github.com/skillpod-hq/sentinel/utils/securestore"
)

var ErrNotFound = errors.New("tenant key not found")

// Get 读取租户密钥并用主密钥解密
func Get(tenantID string) ([]byte, error) {
	db := dbcore.GetDBInstance()
	var record models.TenantKey
	err := db.Where("tenant_id = ?", tenantID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	master, err := securestore.GetOrCreateMasterKey()
	if err != nil {
		return nil, err
	}
	plain, err := securestore.DecryptString(master, record.KeyEnc)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(plain)
}

// Save 用主密钥加密后落库。tenant_id 唯一索引保证并发下至多一条，
// 冲突时返回错误由调用方重读。
func Save(tenantID string, key []byte) error {
	master, err := securestore.GetOrCreateMasterKey()
	if err != nil {
		return err
	}
	enc, err := securestore.EncryptString(master, base64.StdEncoding.EncodeToString(key))
	if err != nil {
		return err
	}
	record := models.TenantKey{TenantID: tenantID, KeyEnc: enc}
	return dbcore.GetDBInstance().Create(&record).Error
}
