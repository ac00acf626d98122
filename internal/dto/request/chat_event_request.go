package request

// 本文件定义 WebSocket 事件的载荷结构
// 事件外层帧见 internal/service/chat/events.go

// SendChatMessageRequest sendMessage 事件载荷
// TargetUserId 仅客服需要填写；普通用户只能写入自己的会话
// TempId 为客户端本地乐观消息的临时 ID，出错时原样回传供客户端回滚
type SendChatMessageRequest struct {
	TargetUserId string `json:"targetUserId,omitempty"`
	MessageType  string `json:"messageType"`
	Content      string `json:"content"`
	Duration     int    `json:"duration,omitempty"` // 语音时长（秒）
	TempId       string `json:"tempId,omitempty"`
}

// EditMessageRequest editMessage 事件载荷
type EditMessageRequest struct {
	MessageId string `json:"messageId"`
	Content   string `json:"content"`
}

// DeleteMessageRequest deleteMessage 事件载荷
type DeleteMessageRequest struct {
	MessageId string `json:"messageId"`
}

// MarkMessagesAsReadRequest markMessagesAsRead 事件载荷
// ChatId 即会话归属用户的 uuid
type MarkMessagesAsReadRequest struct {
	ChatId string `json:"chatId"`
}
