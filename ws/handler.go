package ws

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     CheckOrigin,
}

// CheckOrigin 默认放行；显式要求校验时比对 Origin 与 Host
func CheckOrigin(r *http.Request) bool {
	if strings.EqualFold(os.Getenv("SENTINEL_WS_DISABLE_ORIGIN"), "false") {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		originUrl, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return originUrl.Host == r.Host
	}
	return true
}

// HandleNotifications GET /api/ws/notifications
// 身份头由上游网关注入；approver=1 的连接会收到审批人广播。
func HandleNotifications(c *gin.Context) {
	tenantID := c.GetHeader("x-tenant-id")
	userID := c.GetHeader("x-user-id")
	if tenantID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing identity headers"})
		return
	}
	approver := c.Query("approver") == "1"

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	Register(conn, tenantID, userID, approver)
	defer func() {
		Unregister(conn)
		_ = conn.Close()
	}()

	// 只读循环维持连接，客户端不上行业务数据
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
