package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIPKey holds the resolved client address in the gin context.
const RealIPKey = "real_ip"

// clientIPHeaders are consulted in order. Terminals behind Cloudflare send
// CF-Connecting-IP; on-site reverse proxies usually set X-Real-IP or X-Forwarded-For.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP resolves the device's address for rate limiting and logging. The first
// parseable header wins (left-most entry for X-Forwarded-For); otherwise c.ClientIP().
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RealIPKey, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
	for _, h := range clientIPHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
