// Package middleware 提供 gin 中间件
package middleware

import (
	"net/http"
	"strings"

	"consult_chat_server/pkg/enum/role_enum"
	"consult_chat_server/pkg/errorx"
	myjwt "consult_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// 认证通过后写入请求上下文的键
const (
	ContextUserIdKey = "user_id"
	ContextRoleKey   = "role"
)

// JWTAuth 校验 Authorization 头中的 Access Token
// 通过后把 {userId, role} 写入请求上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "缺少认证 Token")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(token)
		if err != nil || claims.Subject != "access_token" {
			abortUnauthorized(c, "无效的认证 Token")
			return
		}
		c.Set(ContextUserIdKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// AdminOnly 仅允许客服访问，必须挂在 JWTAuth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRoleKey) != role_enum.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    errorx.CodeForbidden,
				"message": "无权执行该操作",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    errorx.CodeUnauthorized,
		"message": msg,
	})
}
