package repository

import (
	"time"

	"consult_chat_server/internal/model"

	"gorm.io/gorm"
)

type paymentOrderRepository struct {
	db *gorm.DB
}

// NewPaymentOrderRepository 创建支付订单 Repository
func NewPaymentOrderRepository(db *gorm.DB) PaymentOrderRepository {
	return &paymentOrderRepository{db: db}
}

// Create 创建订单
func (r *paymentOrderRepository) Create(order *model.PaymentOrder) error {
	if err := r.db.Create(order).Error; err != nil {
		return wrapDBError(err, "创建订单")
	}
	return nil
}

// FindByOrderId 按订单号查找
func (r *paymentOrderRepository) FindByOrderId(orderId string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	if err := r.db.First(&order, "order_id = ?", orderId).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询订单 order_id=%s", orderId)
	}
	return &order, nil
}

// FindPaidRegisterOrder 查找指定邮箱已支付的注册订单
func (r *paymentOrderRepository) FindPaidRegisterOrder(email string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.db.First(&order, "email = ? AND kind = ? AND status = ?",
		email, model.OrderKindRegister, model.OrderStatusPaid).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询注册订单 email=%s", email)
	}
	return &order, nil
}

// MarkPaid 条件更新：仅当订单处于已创建状态时置为已支付
// 返回 false 表示订单不存在或已处理过，支付回调据此保持幂等
func (r *paymentOrderRepository) MarkPaid(orderId string) (bool, error) {
	res := r.db.Model(&model.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderId, model.OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":  model.OrderStatusPaid,
			"paid_at": time.Now(),
		})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "更新订单状态 order_id=%s", orderId)
	}
	return res.RowsAffected > 0, nil
}

// Close 关闭订单
func (r *paymentOrderRepository) Close(orderId string) error {
	if err := r.db.Model(&model.PaymentOrder{}).Where("order_id = ?", orderId).
		Update("status", model.OrderStatusClosed).Error; err != nil {
		return wrapDBErrorf(err, "关闭订单 order_id=%s", orderId)
	}
	return nil
}
