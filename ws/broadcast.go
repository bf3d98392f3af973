package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn     *websocket.Conn
	tenantID string
	userID   string
	approver bool
}

var (
	mu      sync.RWMutex
	clients = make(map[*websocket.Conn]*client)
)

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Register 登记一条已升级的通知连接
func Register(conn *websocket.Conn, tenantID, userID string, approver bool) {
	mu.Lock()
	defer mu.Unlock()
	clients[conn] = &client{conn: conn, tenantID: tenantID, userID: userID, approver: approver}
}

// Unregister 移除连接
func Unregister(conn *websocket.Conn) {
	mu.Lock()
	defer mu.Unlock()
	delete(clients, conn)
}

// NotifyTenantApprovers 向租户全部审批人推送事件。
// 尽力投递：连接写失败直接跳过，申请记录本身才是事实来源。
func NotifyTenantApprovers(tenantID, event string, payload interface{}) {
	send(event, payload, func(c *client) bool {
		return c.tenantID == tenantID && c.approver
	})
}

// NotifyUser 向指定用户推送事件
func NotifyUser(tenantID, userID, event string, payload interface{}) {
	send(event, payload, func(c *client) bool {
		return c.tenantID == tenantID && c.userID == userID
	})
}

func send(event string, payload interface{}, match func(*client) bool) {
	raw, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	for _, c := range clients {
		if !match(c) {
			continue
		}
		if c.conn != nil && c.conn.WriteMessage(websocket.TextMessage, raw) != nil {
			// 忽略单个连接的写入错误
			continue
		}
	}
}

// ConnectedCount 当前连接数（测试与诊断用）
func ConnectedCount() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(clients)
}
