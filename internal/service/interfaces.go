// Package service 定义业务服务接口与聚合
// Handler 层只依赖这里的接口，不感知具体实现
package service

import (
	"context"

	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"

	"github.com/gin-gonic/gin"
)

// UserService 账号服务接口
type UserService interface {
	// Register 注册新用户（需要已支付的注册订单）
	Register(req request.RegisterRequest) (*respond.RegisterRespond, error)
	// Login 邮箱密码登录，颁发双 Token
	Login(req request.LoginRequest) (*respond.LoginRespond, error)
	// RefreshToken 刷新 Access Token
	RefreshToken(req request.RefreshTokenRequest) (*respond.RefreshTokenRespond, error)
	// GetUserInfo 查询用户资料
	GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error)
	// UpdateUserInfo 更新昵称/头像
	UpdateUserInfo(uuid string, req request.UpdateUserInfoRequest) error
}

// ChatService 消息服务接口
type ChatService interface {
	// GetOrCreateChat 返回用户的会话，首次访问时创建
	GetOrCreateChat(ctx context.Context, userId string) (*model.Thread, error)
	// SaveMessage 持久化一条消息，分配 ID 与服务端时间戳
	SaveMessage(ctx context.Context, userId, senderId, msgType, content string, duration int) (*model.Message, error)
	// EditMessage 修改消息内容并失效历史缓存
	EditMessage(ctx context.Context, userId string, messageId int64, content string) error
	// SoftDeleteMessage 软删除消息并失效历史缓存
	SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error
	// GetMessageList 会话历史消息
	GetMessageList(ctx context.Context, userId string) ([]respond.ChatMessageRespond, error)
	// GetChatSummaries 客服端会话列表
	GetChatSummaries(ctx context.Context) ([]respond.ChatSummaryRespond, error)
	// UploadFile 保存聊天文件，返回静态访问路径
	UploadFile(c *gin.Context) (string, error)
}

// PaymentService 支付服务接口
type PaymentService interface {
	// CreateRegisterOrder 创建注册费订单
	CreateRegisterOrder(email string) (*respond.OrderRespond, error)
	// CreateCreditOrder 创建消息额度充值订单
	CreateCreditOrder(userUuid string, credits int64) (*respond.OrderRespond, error)
	// HandleNotify 处理支付网关回调
	HandleNotify(req request.PaymentNotifyRequest) error
}
