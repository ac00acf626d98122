// Package repository 定义关系库数据访问接口与聚合
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
package repository

import (
	"consult_chat_server/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByEmail 根据邮箱查找用户
	FindByEmail(email string) (*model.UserInfo, error)
	// Create 创建新用户
	Create(user *model.UserInfo) error
	// UpdateInfo 更新昵称/头像等资料字段
	UpdateInfo(uuid string, updates map[string]interface{}) error
	// AddCredits 原子增加消息额度
	AddCredits(uuid string, n int64) error
}

// PaymentOrderRepository 支付订单数据访问接口
type PaymentOrderRepository interface {
	// Create 创建订单
	Create(order *model.PaymentOrder) error
	// FindByOrderId 根据订单号查找
	FindByOrderId(orderId string) (*model.PaymentOrder, error)
	// FindPaidRegisterOrder 查找指定邮箱已支付且未消费的注册订单
	FindPaidRegisterOrder(email string) (*model.PaymentOrder, error)
	// MarkPaid 将订单从已创建置为已支付（条件更新，重复回调幂等）
	MarkPaid(orderId string) (bool, error)
	// Close 关闭订单
	Close(orderId string) error
}
