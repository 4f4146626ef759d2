package middleware

import (
	"net/http"
	"time"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session 保证每个请求都带有会话标识，匿名答卷以此限制提交次数
func Session(cookieName string, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(key) != nil {
			key = uuid.New().String()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, key, int(ttl.Seconds()), "/", "", secure, true)
		c.Set(util.SessionContextKey, key)
		c.Next()
	}
}
