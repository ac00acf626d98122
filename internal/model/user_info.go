// Package model 定义数据库实体模型
// 本文件定义用户模型，对应 MySQL user_info 表
package model

import (
	"gorm.io/gorm"

	"golang.org/x/crypto/bcrypt"
)

// UserInfo 用户模型
// 普通用户注册需先完成注册订单支付，客服由运营后台直接置位 is_admin
type UserInfo struct {
	gorm.Model

	// Uuid 用户唯一标识，U + 时间戳随机串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:用户uuid"`

	// Nickname 昵称
	Nickname string `gorm:"column:nickname;type:varchar(20);not null;comment:昵称"`

	// Email 登录邮箱，唯一
	Email string `gorm:"column:email;uniqueIndex;type:varchar(50);not null;comment:邮箱"`

	// Password bcrypt 哈希
	Password string `gorm:"column:password;type:varchar(80);not null;comment:密码哈希"`

	// Avatar 头像 URL
	Avatar string `gorm:"column:avatar;type:varchar(255);comment:头像"`

	// IsAdmin 是否为客服管理员，0 否 1 是
	IsAdmin int8 `gorm:"column:is_admin;not null;default:0;comment:是否管理员"`

	// Credits 剩余消息额度，通过支付订单充值
	Credits int64 `gorm:"column:credits;not null;default:0;comment:消息额度"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// SetPassword 生成并保存 bcrypt 哈希
func (u *UserInfo) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword 校验明文密码
func (u *UserInfo) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
