package respond

// ChatSummaryRespond 客服端会话列表项
type ChatSummaryRespond struct {
	UserId      string              `json:"userId"`
	LastMessage *ChatMessageRespond `json:"lastMessage,omitempty"`
	UnreadCount int64               `json:"unreadCount"`
}

// UnreadCountRespond updateUnreadCount 事件载荷
type UnreadCountRespond struct {
	UserId      string `json:"userId"`
	UnreadCount int64  `json:"unreadCount"`
}

// MessagesReadRespond messagesRead 事件载荷（用户端已读回执）
type MessagesReadRespond struct {
	ChatId string `json:"chatId"`
	ReadAt string `json:"readAt"`
}

// MessageEditedRespond messageEdited 事件载荷
type MessageEditedRespond struct {
	Id       string `json:"id"`
	ChatId   string `json:"chatId"`
	Content  string `json:"content"`
	IsEdited bool   `json:"isEdited"`
}

// MessageDeletedRespond messageDeleted 事件载荷
type MessageDeletedRespond struct {
	Id     string `json:"id"`
	ChatId string `json:"chatId"`
}
