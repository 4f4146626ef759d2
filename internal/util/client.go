package util

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP 优先取 X-Forwarded-For 的第一个地址，不是合法 IP 时退回连接地址
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// IsWeChatUA 是否微信内置浏览器
func IsWeChatUA(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), WeChatUAMarker)
}

// GetSessionKey 由会话中间件写入
func GetSessionKey(c *gin.Context) string {
	return c.GetString(SessionContextKey)
}
