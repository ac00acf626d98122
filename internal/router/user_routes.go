package router

import (
	"consult_chat_server/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (rt *Router) registerUserRoutes(api *gin.RouterGroup) {
	user := api.Group("/user", middleware.JWTAuth())
	{
		user.GET("/me", rt.handlers.User.GetMe)
		user.PUT("/me", rt.handlers.User.UpdateMe)
	}
}
