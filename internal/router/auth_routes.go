package router

import "github.com/gin-gonic/gin"

// registerAuthRoutes 注册/登录/刷新 Token，均无需认证
func (rt *Router) registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.handlers.User.Register)
		auth.POST("/login", rt.handlers.User.Login)
		auth.POST("/refresh", rt.handlers.User.RefreshToken)
	}
}
