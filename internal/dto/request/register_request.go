package request

// RegisterRequest 注册请求
// 注册前需存在该邮箱已支付的注册订单
type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=32"`
}
