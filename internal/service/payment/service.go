// Package payment 实现支付订单的创建与回调入账
// 实际收款发生在外部网关；本服务只负责订单状态机与回调验签
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"consult_chat_server/internal/config"
	"consult_chat_server/internal/dao/mysql/repository"
	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/errorx"
	"consult_chat_server/pkg/util/random"

	"go.uber.org/zap"
)

// Gateway 外部支付网关能力
type Gateway interface {
	// CreateOrder 在网关侧下单，返回收银台跳转地址
	CreateOrder(orderId string, amount int64, subject string) (payUrl string, err error)
}

// sandboxGateway 本地联调用的网关实现，直接拼出收银台地址
type sandboxGateway struct{}

func (sandboxGateway) CreateOrder(orderId string, amount int64, subject string) (string, error) {
	return "https://pay.example.com/checkout/" + orderId, nil
}

func NewSandboxGateway() Gateway {
	return sandboxGateway{}
}

type paymentService struct {
	repos   *repository.Repositories
	gateway Gateway
	conf    *config.PaymentConfig
}

func NewPaymentService(repos *repository.Repositories, gateway Gateway) *paymentService {
	return &paymentService{
		repos:   repos,
		gateway: gateway,
		conf:    &config.GetConfig().PaymentConfig,
	}
}

// CreateRegisterOrder 创建注册费订单，注册前置步骤，无需登录
func (s *paymentService) CreateRegisterOrder(email string) (*respond.OrderRespond, error) {
	order := &model.PaymentOrder{
		OrderId: "P" + random.GetNowAndLenRandomString(19),
		Kind:    model.OrderKindRegister,
		Email:   email,
		Amount:  s.conf.RegistrationFee,
		Status:  model.OrderStatusCreated,
	}
	return s.placeOrder(order, "注册费")
}

// CreateCreditOrder 创建消息额度充值订单
func (s *paymentService) CreateCreditOrder(userUuid string, credits int64) (*respond.OrderRespond, error) {
	if credits <= 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "充值额度必须大于 0")
	}
	order := &model.PaymentOrder{
		OrderId:  "P" + random.GetNowAndLenRandomString(19),
		Kind:     model.OrderKindCredits,
		UserUuid: userUuid,
		Amount:   credits * s.conf.CreditPrice,
		Credits:  credits,
		Status:   model.OrderStatusCreated,
	}
	return s.placeOrder(order, "消息额度充值")
}

func (s *paymentService) placeOrder(order *model.PaymentOrder, subject string) (*respond.OrderRespond, error) {
	if err := s.repos.PaymentOrder.Create(order); err != nil {
		zap.L().Error("创建支付订单失败", zap.String("order_id", order.OrderId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	payUrl, err := s.gateway.CreateOrder(order.OrderId, order.Amount, subject)
	if err != nil {
		zap.L().Error("支付网关下单失败", zap.String("order_id", order.OrderId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.OrderRespond{
		OrderId: order.OrderId,
		Amount:  order.Amount,
		PayUrl:  payUrl,
	}, nil
}

// HandleNotify 处理支付网关回调
// 验签失败拒绝；条件更新保证重复回调幂等；充值订单的入账与状态变更同一事务
func (s *paymentService) HandleNotify(req request.PaymentNotifyRequest) error {
	if !s.verifySignature(req.OrderId, req.Signature) {
		zap.L().Warn("支付回调验签失败", zap.String("order_id", req.OrderId))
		return errorx.New(errorx.CodeUnauthorized, "验签失败")
	}

	order, err := s.repos.PaymentOrder.FindByOrderId(req.OrderId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "订单不存在")
		}
		zap.L().Error("支付回调查询订单失败", zap.String("order_id", req.OrderId), zap.Error(err))
		return errorx.ErrServerBusy
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		updated, err := tx.PaymentOrder.MarkPaid(req.OrderId)
		if err != nil {
			return err
		}
		if !updated {
			// 订单已不在待支付状态，视为重复回调
			return nil
		}
		if order.Kind == model.OrderKindCredits {
			return tx.User.AddCredits(order.UserUuid, order.Credits)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("支付回调入账失败", zap.String("order_id", req.OrderId), zap.Error(err))
		return errorx.ErrServerBusy
	}

	zap.L().Info("支付回调处理完成",
		zap.String("order_id", req.OrderId),
		zap.Int64("amount", order.Amount))
	return nil
}

// verifySignature 校验回调签名：HMAC-SHA256(orderId, notifySecret) 的十六进制串
func (s *paymentService) verifySignature(orderId, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.conf.NotifySecret))
	mac.Write([]byte(orderId))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
