// Package mysql 提供关系库数据访问层的初始化
// 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"consult_chat_server/internal/config"
	"consult_chat_server/internal/dao/mysql/repository"
	"consult_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// GormDB 全局数据库实例，供集成测试直接访问
var GormDB *gorm.DB

// Init 初始化数据库连接并返回 Repository 层实例
// 连接或迁移失败视为致命错误，直接退出
func Init() *repository.Repositories {
	conf := config.GetConfig()

	// user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	// AutoMigrate 自动迁移表结构，表不存在则创建，字段变更则更新
	err = db.AutoMigrate(
		&model.UserInfo{},
		&model.PaymentOrder{},
	)
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	GormDB = db
	return repository.NewRepositories(db)
}
