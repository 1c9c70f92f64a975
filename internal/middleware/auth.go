package middleware

import (
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator 从请求中解析身份
type Authenticator interface {
	Authenticate(c *gin.Context) (*util.Identity, error)
}

// IdentityMiddleware 由身份提供者解析当前用户，失败返回 401
func IdentityMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(c)
		if err != nil || identity == nil {
			logger.Log.Debug("authentication failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		util.SetIdentity(c, identity)
		c.Next()
	}
}

// MaxBodySize 限制请求体大小（上传接口）
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
