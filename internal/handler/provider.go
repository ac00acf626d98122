package handler

import (
	"consult_chat_server/internal/service"
	"consult_chat_server/internal/service/chat"
)

// Handlers 聚合所有 HTTP/WebSocket Handler 实例
type Handlers struct {
	User    *UserHandler
	Message *MessageHandler
	Payment *PaymentHandler
	Ws      *WsHandler
}

// NewHandlers 装配全部 Handler
func NewHandlers(svcs *service.Services, chatServer *chat.ChatServer) *Handlers {
	return &Handlers{
		User:    NewUserHandler(svcs.User),
		Message: NewMessageHandler(svcs.Chat),
		Payment: NewPaymentHandler(svcs.Payment),
		Ws:      NewWsHandler(chatServer),
	}
}
