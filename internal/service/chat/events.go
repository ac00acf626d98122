// Package chat 实现了咨询聊天系统的实时核心
// events.go
// 核心职责：WebSocket 事件协议定义
// 上行帧携带事件名 + 可选 ackId + 载荷；服务端通过 ack 事件回执
package chat

import "encoding/json"

// 客户端上行事件
const (
	EventSendMessage        = "sendMessage"
	EventEditMessage        = "editMessage"
	EventDeleteMessage      = "deleteMessage"
	EventMarkMessagesAsRead = "markMessagesAsRead"
	EventSyncUnreadCounts   = "syncUnreadCounts"
)

// 服务端下行事件
const (
	EventNewMessage          = "newMessage"
	EventMessageDelivered    = "messageDelivered"
	EventMessageEdited       = "messageEdited"
	EventMessageDeleted      = "messageDeleted"
	EventMessagesRead        = "messagesRead"
	EventUpdateUnreadCount   = "updateUnreadCount"
	EventInitialUnreadCounts = "initialUnreadCounts"
	EventMessageError        = "messageError"
	EventAck                 = "ack"
)

// 回执状态
const (
	AckSuccess = "success"
	AckError   = "error"
)

// EventFrame 客户端上行帧
// AckId 非零时客户端期望收到对应的 ack 回执
type EventFrame struct {
	Event string          `json:"event"`
	AckId int64           `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PushFrame 服务端下行帧
type PushFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// AckRespond ack 事件载荷
type AckRespond struct {
	AckId   int64  `json:"ackId"`
	Status  string `json:"status"`
	Message any    `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MessageErrorRespond messageError 事件载荷
// TempId 原样回传，客户端据此回滚乐观展示的本地消息
type MessageErrorRespond struct {
	TempId string `json:"tempId,omitempty"`
	Code   int    `json:"code"`
	Error  string `json:"error"`
}
