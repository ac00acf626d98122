package router

import "github.com/gin-gonic/gin"

// registerWsRoutes WebSocket 入口，Token 校验在升级前由 chat 包完成
func (rt *Router) registerWsRoutes(r *gin.Engine) {
	r.GET("/ws/chat", rt.handlers.Ws.Connect)
}
