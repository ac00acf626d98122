// ws_handler.go
// 核心职责：WebSocket 接入点，认证与升级在 chat 包内完成
package handler

import (
	"consult_chat_server/internal/service/chat"

	"github.com/gin-gonic/gin"
)

type WsHandler struct {
	chatServer *chat.ChatServer
}

func NewWsHandler(chatServer *chat.ChatServer) *WsHandler {
	return &WsHandler{chatServer: chatServer}
}

// Connect WebSocket 握手入口
// GET /ws/chat?token=xxx
func (h *WsHandler) Connect(c *gin.Context) {
	chat.NewClientInit(c, h.chatServer.Gateway)
}
