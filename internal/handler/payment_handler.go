// payment_handler.go
// 核心职责：支付订单与网关回调 HTTP 接口
package handler

import (
	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/middleware"
	"consult_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateRegisterOrder 创建注册费订单（注册前置，无需登录）
// POST /api/payment/register-order
func (h *PaymentHandler) CreateRegisterOrder(c *gin.Context) {
	var req request.CreateRegisterOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.paymentService.CreateRegisterOrder(req.Email)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// CreateCreditOrder 创建消息额度充值订单
// POST /api/payment/credit-order
func (h *PaymentHandler) CreateCreditOrder(c *gin.Context) {
	var req request.CreateCreditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.paymentService.CreateCreditOrder(c.GetString(middleware.ContextUserIdKey), req.Credits)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// Notify 支付网关回调
// POST /api/payment/notify
func (h *PaymentHandler) Notify(c *gin.Context) {
	var req request.PaymentNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.paymentService.HandleNotify(req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
