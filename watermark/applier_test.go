package watermark

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpod-hq/sentinel/database/dbcore"
	dbwatermark "github.com/skillpod-hq/sentinel/database/watermark"
	"github.com/skillpod-hq/sentinel/database/models"
)

func setupWatermarkDB(t *testing.T) {
	t.Helper()
	t.Setenv("SENTINEL_MASTER_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))
	require.NoError(t, dbcore.InitializeForTest())
}

func TestKeyManagerSingleGeneration(t *testing.T) {
	setupWatermarkDB(t)
	km := NewKeyManager()

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			key, err := km.GetTenantKey("tenant-keys")
			assert.NoError(t, err)
			results[idx] = key
		}(i)
	}
	wg.Wait()

	for _, key := range results {
		require.Len(t, key, 32)
		assert.Equal(t, results[0], key)
	}

	// 密钥表内至多一条
	var count int64
	require.NoError(t, dbcore.GetDBInstance().
		Model(&models.TenantKey{}).
		Where("tenant_id = ?", "tenant-keys").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestKeyManagerReadThrough(t *testing.T) {
	setupWatermarkDB(t)

	first, err := NewKeyManager().GetTenantKey("tenant-rt")
	require.NoError(t, err)

	// 新实例冷缓存，应从密钥表读到同一把钥匙
	second, err := NewKeyManager().GetTenantKey("tenant-rt")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestApplierSessionLifecycle(t *testing.T) {
	setupWatermarkDB(t)
	applier := NewApplier(NewKeyManager())

	id := Identity{
		UserID:    "user-1",
		UserEmail: "alice@example.com",
		SessionID: "sess-lifecycle",
		TenantID:  "tenant-app",
		PodID:     "pod-1",
		Timestamp: time.Now(),
	}

	instance, overlay, err := applier.InitSession(id, "")
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.NotEmpty(t, instance.ID)
	assert.NotEmpty(t, instance.KeyHash)
	assert.Contains(t, overlay.HTML, "alice@example.com")

	// 帧嵌入推进序号
	frame := make([]byte, 64*1024)
	res, err := applier.EmbedFrame("tenant-app", "sess-lifecycle", frame)
	require.NoError(t, err)
	assert.NotEmpty(t, res.PayloadHash)

	_, err = applier.EmbedFrame("tenant-app", "sess-lifecycle", make([]byte, 64*1024))
	require.NoError(t, err)
	seq, ok := applier.SequenceNumber("tenant-app", "sess-lifecycle")
	require.True(t, ok)
	assert.Equal(t, uint64(2), seq)

	// 覆盖层刷新校验实例 ID
	_, err = applier.RefreshOverlay("tenant-app", "sess-lifecycle", "wrong-id")
	assert.ErrorIs(t, err, ErrInstanceMismatch)
	refreshed, err := applier.RefreshOverlay("tenant-app", "sess-lifecycle", instance.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.HTML)

	// 关闭后回写序号并拒绝继续嵌入
	require.NoError(t, applier.CloseSession("tenant-app", "sess-lifecycle"))
	stored, err := dbwatermark.GetInstanceBySession("tenant-app", "sess-lifecycle")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.SequenceNumber)

	_, err = applier.EmbedFrame("tenant-app", "sess-lifecycle", frame)
	assert.ErrorIs(t, err, ErrSessionNotInitialized)
}

func TestApplierRequiresInitBeforeEmbed(t *testing.T) {
	setupWatermarkDB(t)
	applier := NewApplier(NewKeyManager())

	_, err := applier.EmbedFrame("tenant-x", "sess-x", make([]byte, 1024))
	assert.ErrorIs(t, err, ErrSessionNotInitialized)
}

func TestApplierLazyDefaultConfig(t *testing.T) {
	setupWatermarkDB(t)
	applier := NewApplier(NewKeyManager())

	id := Identity{
		UserID:    "user-2",
		UserEmail: "bob@example.com",
		SessionID: "sess-default-cfg",
		TenantID:  "tenant-lazy",
		Timestamp: time.Now(),
	}
	instance, _, err := applier.InitSession(id, "")
	require.NoError(t, err)

	cfg, err := dbwatermark.GetConfig("tenant-lazy", instance.ConfigID)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault)
	assert.Equal(t, models.PatternTiled, cfg.Pattern)
	assert.Equal(t, 0.15, cfg.Opacity)
	assert.Equal(t, 3, cfg.Redundancy)
}

func TestApplierRejectsForeignConfig(t *testing.T) {
	setupWatermarkDB(t)
	applier := NewApplier(NewKeyManager())

	otherCfg, err := dbwatermark.GetDefaultConfig("tenant-other")
	require.NoError(t, err)

	id := Identity{
		UserID:    "user-3",
		SessionID: "sess-foreign",
		TenantID:  "tenant-mine",
		Timestamp: time.Now(),
	}
	_, _, err = applier.InitSession(id, otherCfg.ID)
	assert.ErrorIs(t, err, dbwatermark.ErrConfigNotFound)
}
