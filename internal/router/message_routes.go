package router

import (
	"consult_chat_server/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (rt *Router) registerMessageRoutes(api *gin.RouterGroup) {
	authed := api.Group("", middleware.JWTAuth())
	{
		authed.GET("/messages", rt.handlers.Message.GetHistory)
		authed.POST("/upload", rt.handlers.Message.Upload)
	}
	// 会话列表仅客服可见
	admin := api.Group("", middleware.JWTAuth(), middleware.AdminOnly())
	{
		admin.GET("/chats", rt.handlers.Message.GetChatList)
	}
}
