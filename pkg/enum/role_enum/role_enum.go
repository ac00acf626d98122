// Package role_enum 定义连接身份角色枚举
package role_enum

const (
	User  = "user"  // 普通咨询用户
	Admin = "admin" // 客服管理员
)
