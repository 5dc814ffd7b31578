package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationIDKey    = "correlationID"
	CorrelationIDHeader = "X-Correlation-ID"
)

// 客户端传入的 ID 会写进日志与任务载荷，只接受短的安全字符。
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// CorrelationIDMiddleware 为每个请求确定 Correlation ID，并随导出任务与通知一路传递。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if !correlationIDPattern.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID 从上下文中取出 Correlation ID。
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}
