package watermark

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	dbwatermark "github.com/skillpod-hq/sentinel/database/watermark"
	"github.com/skillpod-hq/sentinel/database/models"
)

var (
	ErrSessionNotInitialized = errors.New("watermark session not initialized")
	ErrInstanceMismatch      = errors.New("instance id does not match session")
)

// sessionState 会话启动时解析一次，帧路径上零 I/O
type sessionState struct {
	instance *models.WatermarkInstance
	config   *models.WatermarkConfiguration
	key      []byte
	identity Identity
	seq      atomic.Uint64
}

// Applier 水印编排器：配置解析、会话实例生命周期、逐帧嵌入
type Applier struct {
	keys     *KeyManager
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewApplier 创建编排器
func NewApplier(keys *KeyManager) *Applier {
	return &Applier{
		keys:     keys,
		sessions: make(map[string]*sessionState),
	}
}

func sessionKey(tenantID, sessionID string) string {
	return tenantID + "/" + sessionID
}

// InitSession 解析配置、生成会话实例并产出首个可见覆盖层。
// configID 为空时用租户默认配置（缺失则惰性创建）。
func (a *Applier) InitSession(id Identity, configID string) (*models.WatermarkInstance, *Overlay, error) {
	var cfg *models.WatermarkConfiguration
	var err error
	if configID != "" {
		cfg, err = dbwatermark.GetConfig(id.TenantID, configID)
	} else {
		cfg, err = dbwatermark.GetDefaultConfig(id.TenantID)
	}
	if err != nil {
		return nil, nil, err
	}

	key, err := a.keys.GetTenantKey(id.TenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tenant key: %w", err)
	}

	if id.Timestamp.IsZero() {
		id.Timestamp = time.Now()
	}
	instance := &models.WatermarkInstance{
		ConfigID:  cfg.ID,
		TenantID:  id.TenantID,
		SessionID: id.SessionID,
		UserID:    id.UserID,
		UserEmail: id.UserEmail,
		PodID:     id.PodID,
		ClientIP:  id.ClientIP,
		KeyHash:   KeyHash(key),
	}
	if err := dbwatermark.CreateInstance(instance); err != nil {
		return nil, nil, err
	}

	state := &sessionState{
		instance: instance,
		config:   cfg,
		key:      key,
		identity: id,
	}
	a.mu.Lock()
	a.sessions[sessionKey(id.TenantID, id.SessionID)] = state
	a.mu.Unlock()

	overlay := RenderOverlay(cfg, id)
	return instance, &overlay, nil
}

// EmbedFrame 对一帧执行隐形嵌入。会话必须已初始化；
// 配置、密钥、实例均取自会话缓存，不触达存储。
func (a *Applier) EmbedFrame(tenantID, sessionID string, frame []byte) (*EmbedResult, error) {
	a.mu.RLock()
	state, ok := a.sessions[sessionKey(tenantID, sessionID)]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotInitialized
	}

	seq := state.seq.Add(1)
	return EmbedPayload(frame, state.identity, seq, state.key, state.config)
}

// RefreshOverlay 以当前时间重新生成可见覆盖层，不创建新实例。
// 调用方持有的实例 ID 必须与会话实际实例一致。
func (a *Applier) RefreshOverlay(tenantID, sessionID, instanceID string) (*Overlay, error) {
	a.mu.RLock()
	state, ok := a.sessions[sessionKey(tenantID, sessionID)]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotInitialized
	}
	if state.instance.ID != instanceID {
		return nil, ErrInstanceMismatch
	}

	id := state.identity
	id.Timestamp = time.Now()
	overlay := RenderOverlay(state.config, id)
	return &overlay, nil
}

// CloseSession 回写序号并释放会话缓存
func (a *Applier) CloseSession(tenantID, sessionID string) error {
	key := sessionKey(tenantID, sessionID)
	a.mu.Lock()
	state, ok := a.sessions[key]
	if ok {
		delete(a.sessions, key)
	}
	a.mu.Unlock()
	if !ok {
		return ErrSessionNotInitialized
	}
	return dbwatermark.FlushSequence(state.instance.ID, state.seq.Load())
}

// SequenceNumber 当前帧序号（诊断用）
func (a *Applier) SequenceNumber(tenantID, sessionID string) (uint64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	state, ok := a.sessions[sessionKey(tenantID, sessionID)]
	if !ok {
		return 0, false
	}
	return state.seq.Load(), true
}
