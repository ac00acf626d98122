package respond

// OrderRespond 订单创建响应
// PayUrl 由外部支付网关返回，客户端跳转完成支付
type OrderRespond struct {
	OrderId string `json:"order_id"`
	Amount  int64  `json:"amount"`
	PayUrl  string `json:"pay_url"`
}
