package respond

import (
	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/util/snowflake"
)

// ChatMessageRespond 消息下发信封
// 实时推送与 REST 历史接口共用同一形状，由 Chat Service 统一装配
type ChatMessageRespond struct {
	Id          string `json:"id"`     // 雪花 ID 字符串形式
	ChatId      string `json:"chatId"` // 会话归属用户 uuid
	SenderId    string `json:"senderId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	Duration    int    `json:"duration,omitempty"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"` // delivered
	IsAdmin     bool   `json:"isAdmin"`
	IsEdited    bool   `json:"isEdited"`
	IsDeleted   bool   `json:"isDeleted"`
	ReadByAdmin bool   `json:"readByAdmin"`
}

// NewChatMessageRespond 由存储模型装配下发信封
// isAdmin 表示发送方是否为客服，决定客户端的气泡归边
func NewChatMessageRespond(chatId string, msg *model.Message, isAdmin bool) *ChatMessageRespond {
	return &ChatMessageRespond{
		Id:          snowflake.IDToString(msg.Id),
		ChatId:      chatId,
		SenderId:    msg.SenderId,
		Content:     msg.Content,
		MessageType: msg.Type,
		Duration:    msg.Duration,
		Timestamp:   msg.Timestamp.Format(constants.TIME_LAYOUT),
		Status:      "delivered",
		IsAdmin:     isAdmin,
		IsEdited:    msg.IsEdited,
		IsDeleted:   msg.IsDeleted,
		ReadByAdmin: msg.ReadByAdmin,
	}
}
