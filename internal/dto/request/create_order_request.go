package request

// CreateRegisterOrderRequest 创建注册费订单请求（未登录）
type CreateRegisterOrderRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateCreditOrderRequest 创建消息额度充值订单请求（已登录）
type CreateCreditOrderRequest struct {
	Credits int64 `json:"credits" binding:"required,min=1,max=10000"`
}
