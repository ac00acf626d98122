// message_handler.go
// 核心职责：消息历史/会话列表/文件上传 HTTP 接口
package handler

import (
	"consult_chat_server/internal/middleware"
	"consult_chat_server/internal/service"
	"consult_chat_server/pkg/enum/role_enum"
	"consult_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	chatService service.ChatService
}

func NewMessageHandler(chatService service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// GetHistory 拉取会话历史消息
// GET /api/messages?user_id=xxx
// 普通用户只能拉自己的会话，user_id 参数仅客服有效
func (h *MessageHandler) GetHistory(c *gin.Context) {
	userId := c.GetString(middleware.ContextUserIdKey)
	role := c.GetString(middleware.ContextRoleKey)
	chatId := userId
	if role == role_enum.Admin {
		chatId = c.Query("user_id")
		if chatId == "" {
			HandleError(c, errorx.New(errorx.CodeInvalidParam, "缺少 user_id 参数"))
			return
		}
	} else if target := c.Query("user_id"); target != "" && target != userId {
		HandleError(c, errorx.ErrForbidden)
		return
	}
	list, err := h.chatService.GetMessageList(c.Request.Context(), chatId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}

// GetChatList 客服端会话列表
// GET /api/chats
func (h *MessageHandler) GetChatList(c *gin.Context) {
	list, err := h.chatService.GetChatSummaries(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}

// Upload 上传聊天文件（图片/语音）
// POST /api/upload
func (h *MessageHandler) Upload(c *gin.Context) {
	path, err := h.chatService.UploadFile(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"url": path})
}
