// Package model 定义数据库实体模型
// 本文件定义支付订单模型，对应 MySQL payment_order 表
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 订单类型
const (
	OrderKindRegister int8 = 0 // 注册费订单，支付完成后才允许注册
	OrderKindCredits  int8 = 1 // 消息额度充值订单
)

// 订单状态
const (
	OrderStatusCreated int8 = 0 // 已创建，等待支付
	OrderStatusPaid    int8 = 1 // 已支付
	OrderStatusClosed  int8 = 2 // 已关闭
)

// PaymentOrder 支付订单
// 订单的创建与支付发生在外部网关，这里只记录状态与入账结果
type PaymentOrder struct {
	gorm.Model

	// OrderId 对外订单号
	OrderId string `gorm:"column:order_id;uniqueIndex;type:char(32);not null;comment:订单号"`

	// Kind 订单类型，0 注册费 1 额度充值
	Kind int8 `gorm:"column:kind;not null;comment:订单类型"`

	// Email 注册订单关联的邮箱（注册时用户尚不存在）
	Email string `gorm:"column:email;index;type:varchar(50);comment:注册邮箱"`

	// UserUuid 充值订单关联的用户
	UserUuid string `gorm:"column:user_uuid;index;type:char(20);comment:用户uuid"`

	// Amount 金额（分）
	Amount int64 `gorm:"column:amount;not null;comment:金额(分)"`

	// Credits 充值的消息额度条数
	Credits int64 `gorm:"column:credits;not null;default:0;comment:充值额度"`

	// Status 订单状态，0 已创建 1 已支付 2 已关闭
	Status int8 `gorm:"column:status;not null;default:0;comment:状态"`

	// PaidAt 支付完成时间
	PaidAt sql.NullTime `gorm:"column:paid_at;comment:支付时间"`
}

// TableName 指定表名
func (PaymentOrder) TableName() string {
	return "payment_order"
}
