package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HeaderTenantID = "x-tenant-id"
	HeaderUserID   = "x-user-id"
)

// RespondSuccess 统一成功响应
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   data,
	})
}

// RespondError 统一错误响应
func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  "error",
		"message": message,
	})
}

// Identity 从上游网关注入的身份头取租户与用户，缺失时返回 400
func Identity(c *gin.Context) (tenantID, userID string, ok bool) {
	tenantID = c.GetHeader(HeaderTenantID)
	userID = c.GetHeader(HeaderUserID)
	if tenantID == "" || userID == "" {
		RespondError(c, http.StatusBadRequest, "missing identity headers")
		return "", "", false
	}
	return tenantID, userID, true
}

// ParseDateQuery 解析 YYYY-MM-DD 或 RFC3339 查询参数
func ParseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return &t, nil
}

// PageQuery 解析 page/limit 查询参数
func PageQuery(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return page, limit
}
