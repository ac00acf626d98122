// Package router 注册全部路由
package router

import (
	"consult_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 挂载全部 HTTP 与 WebSocket 路由
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	rt.registerAuthRoutes(api)
	rt.registerUserRoutes(api)
	rt.registerMessageRoutes(api)
	rt.registerPaymentRoutes(api)
	rt.registerWsRoutes(r)
}
