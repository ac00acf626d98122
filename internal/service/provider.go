package service

import (
	"consult_chat_server/internal/config"
	mongodao "consult_chat_server/internal/dao/mongo"
	"consult_chat_server/internal/dao/mysql/repository"
	myredis "consult_chat_server/internal/dao/redis"
	"consult_chat_server/internal/service/message"
	"consult_chat_server/internal/service/payment"
	"consult_chat_server/internal/service/unread"
	"consult_chat_server/internal/service/user"
)

// Services 聚合所有业务服务实例，作为依赖注入的入口
type Services struct {
	User    UserService
	Chat    ChatService
	Payment PaymentService
	Unread  *unread.Counter
}

// NewServices 装配全部业务服务
func NewServices(repos *repository.Repositories, mongoRepos *mongodao.Repositories, cache myredis.AsyncCacheService) *Services {
	conf := config.GetConfig()
	return &Services{
		User:    user.NewUserService(repos, cache, conf.JWTConfig.RefreshTokenExpiry),
		Chat:    message.NewChatService(mongoRepos.Thread, cache),
		Payment: payment.NewPaymentService(repos, payment.NewSandboxGateway()),
		Unread:  unread.NewCounter(mongoRepos.Thread, cache),
	}
}
