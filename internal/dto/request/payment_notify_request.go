package request

// PaymentNotifyRequest 支付网关回调请求
// Signature 为网关使用回调密钥对订单号的签名
type PaymentNotifyRequest struct {
	OrderId   string `json:"order_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
