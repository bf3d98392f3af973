package watermark

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpod-hq/sentinel/database/models"
)

func testIdentity() Identity {
	return Identity{
		UserID:    "user-1",
		UserEmail: "alice@example.com",
		SessionID: "sess-abcdef123456",
		TenantID:  "tenant-1",
		PodID:     "pod-7",
		ClientIP:  "10.0.0.8",
		Timestamp: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	}
}

func testEmbedConfig() *models.WatermarkConfiguration {
	return &models.WatermarkConfiguration{
		Method:     models.EmbedLSB,
		Strength:   models.StrengthMedium,
		Redundancy: 3,
		EncodeFields: models.StringArray{
			string(models.FieldUserID),
			string(models.FieldSessionID),
		},
	}
}

func testKey(t *testing.T) []byte {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEmbedExtractRoundtrip(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 64*1024)
	_, _ = rand.Read(frame)

	res, err := EmbedPayload(frame, testIdentity(), 42, key, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.EmbedLSB, res.Method)
	assert.NotEmpty(t, res.PayloadKey)
	assert.NotEmpty(t, res.PayloadHash)
	assert.Greater(t, res.BytesUsed, 0)

	payload, err := ExtractPayload(frame, key, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, "sess-abcdef123456", payload.SessionID)
	assert.Equal(t, "tenant-1", payload.TenantID)
	assert.Equal(t, uint64(42), payload.Sequence)
}

// 冗余 ≥1 时单副本区域损毁后仍可恢复
func TestExtractSurvivesPartialCorruption(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 96*1024)
	_, _ = rand.Read(frame)

	_, err := EmbedPayload(frame, testIdentity(), 7, key, cfg)
	require.NoError(t, err)

	// 摧毁第一个副本所在区域
	region := len(frame) / cfg.Redundancy
	for i := 0; i < region; i++ {
		frame[i] ^= 0xFF
	}

	payload, err := ExtractPayload(frame, key, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), payload.Sequence)
}

// 载荷只有持有租户密钥的一方可恢复
func TestExtractRequiresCorrectKey(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 64*1024)

	_, err := EmbedPayload(frame, testIdentity(), 1, key, cfg)
	require.NoError(t, err)

	wrongKey := testKey(t)
	_, err = ExtractPayload(frame, wrongKey, cfg)
	assert.Error(t, err)
}

func TestEmbedFrameTooSmall(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 128)

	_, err := EmbedPayload(frame, testIdentity(), 1, key, cfg)
	assert.ErrorContains(t, err, "frame too small")
}

func TestExtractWithoutEmbedding(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 64*1024)
	_, _ = rand.Read(frame)

	_, err := ExtractPayload(frame, key, cfg)
	assert.Error(t, err)
}

// 任一字段变化哈希必变；相同载荷哈希一致
func TestPayloadHashSensitivity(t *testing.T) {
	base := Payload{
		UserID:    "user-1",
		SessionID: "sess-1",
		TenantID:  "tenant-1",
		PodID:     "pod-1",
		Timestamp: 1000,
		Sequence:  5,
	}
	baseHash, err := PayloadHash(base)
	require.NoError(t, err)

	same, err := PayloadHash(base)
	require.NoError(t, err)
	assert.Equal(t, baseHash, same)

	variants := []Payload{base, base, base, base, base, base}
	variants[0].UserID = "user-2"
	variants[1].SessionID = "sess-2"
	variants[2].TenantID = "tenant-2"
	variants[3].PodID = "pod-2"
	variants[4].Timestamp = 1001
	variants[5].Sequence = 6
	for i, v := range variants {
		h, err := PayloadHash(v)
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h, "variant %d should change the hash", i)
	}
}

// 不同强度的嵌入间隔
func TestStrengthStride(t *testing.T) {
	assert.Equal(t, 4, strideFor(models.StrengthLow))
	assert.Equal(t, 2, strideFor(models.StrengthMedium))
	assert.Equal(t, 1, strideFor(models.StrengthHigh))
	assert.Equal(t, 2, strideFor(""))
}

// 嵌入只触达最低有效位，高位不变
func TestEmbedOnlyTouchesLSB(t *testing.T) {
	cfg := testEmbedConfig()
	key := testKey(t)
	frame := make([]byte, 64*1024)
	_, _ = rand.Read(frame)
	original := make([]byte, len(frame))
	copy(original, frame)

	_, err := EmbedPayload(frame, testIdentity(), 1, key, cfg)
	require.NoError(t, err)

	for i := range frame {
		if original[i]&0xFE != frame[i]&0xFE {
			t.Fatalf("high bits changed at byte %d", i)
		}
	}
}
