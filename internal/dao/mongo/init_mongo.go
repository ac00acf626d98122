package mongo

import (
	"context"
	"time"

	"consult_chat_server/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoDB 全局数据库实例
var MongoDB *mongo.Database

// Repositories 聚合文档存储 Repository 实例
type Repositories struct {
	Thread ThreadRepository
}

// Init 初始化 MongoDB 连接并返回 Repository 实例
// 连接失败视为致命错误，直接退出
func Init() *Repositories {
	conf := config.GetConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.MongoConfig.Uri))
	if err != nil {
		zap.L().Fatal("mongo connect failed", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		zap.L().Fatal("mongo ping failed", zap.Error(err))
	}

	MongoDB = client.Database(conf.MongoConfig.DatabaseName)

	// user_id 唯一索引保障"每个用户一个会话"的不变量
	threads := MongoDB.Collection(threadCollection)
	_, err = threads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		zap.L().Warn("create thread index failed", zap.Error(err))
	}
	// 消息 ID 索引用于编辑/删除定位
	_, err = threads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "messages.id", Value: 1}},
	})
	if err != nil {
		zap.L().Warn("create message index failed", zap.Error(err))
	}

	return &Repositories{
		Thread: NewThreadRepository(MongoDB),
	}
}
