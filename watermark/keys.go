package watermark

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/zeebo/blake3"

	"github.com/skillpod-hq/sentinel/database/keys"
)

const keyLockStripes = 32

// KeyManager 租户对称密钥缓存，内存未命中时穿透到密钥表。
// 按租户分段加锁，保证同一租户的首次生成只发生一次。
type KeyManager struct {
	cache *cache.Cache
	locks [keyLockStripes]sync.Mutex
}

// NewKeyManager 创建密钥管理器
func NewKeyManager() *KeyManager {
	return &KeyManager{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// GetTenantKey 读取租户密钥：缓存 → 密钥表 → 生成并持久化
func (m *KeyManager) GetTenantKey(tenantID string) ([]byte, error) {
	if v, ok := m.cache.Get(tenantID); ok {
		return v.([]byte), nil
	}

	lock := &m.locks[stripeFor(tenantID)]
	lock.Lock()
	defer lock.Unlock()

	// 持锁后复查，避免重复生成
	if v, ok := m.cache.Get(tenantID); ok {
		return v.([]byte), nil
	}

	key, err := keys.Get(tenantID)
	if err == nil {
		m.cache.Set(tenantID, key, cache.NoExpiration)
		return key, nil
	}
	if !errors.Is(err, keys.ErrNotFound) {
		return nil, err
	}

	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := keys.Save(tenantID, key); err != nil {
		// 唯一索引冲突说明另一实例刚写入，以库内为准
		if stored, loadErr := keys.Get(tenantID); loadErr == nil {
			m.cache.Set(tenantID, stored, cache.NoExpiration)
			return stored, nil
		}
		return nil, fmt.Errorf("failed to persist tenant key: %w", err)
	}
	m.cache.Set(tenantID, key, cache.NoExpiration)
	return key, nil
}

// KeyHash 密钥指纹，存入水印实例用于归属核验
func KeyHash(key []byte) string {
	sum := blake3.Sum256(key)
	return hex.EncodeToString(sum[:])
}

func stripeFor(tenantID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return int(h.Sum32() % keyLockStripes)
}
