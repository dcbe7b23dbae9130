package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"brewspot/config"
)

const (
	AdminTokenHeader = "X-Admin-Token"
	AdminUserHeader  = "X-Admin-User"
	// AdminUserKey 는 검증된 관리자 이름을 gin 컨텍스트에 저장하는 키다.
	AdminUserKey = "admin_user"
)

// AdminAuthMiddleware 는 X-Admin-Token 헤더가 설정된 토큰과 일치하는지 확인합니다.
// 토큰이 설정되지 않은 경우 관리자 API 는 모두 거부됩니다.
func AdminAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			config.Logger.Warn("admin request rejected: ADMIN_API_TOKEN is not configured")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_api_disabled"})
			return
		}

		got := c.GetHeader(AdminTokenHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_admin_token"})
			return
		}

		c.Set(AdminUserKey, strings.TrimSpace(c.GetHeader(AdminUserHeader)))
		c.Next()
	}
}
