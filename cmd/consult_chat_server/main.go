package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consult_chat_server/internal/config"
	mongodao "consult_chat_server/internal/dao/mongo"
	"consult_chat_server/internal/dao/mysql"
	myredis "consult_chat_server/internal/dao/redis"
	"consult_chat_server/internal/handler"
	"consult_chat_server/internal/http_server"
	"consult_chat_server/internal/infrastructure/logger"
	"consult_chat_server/internal/service"
	"consult_chat_server/internal/service/chat"
	myjwt "consult_chat_server/pkg/util/jwt"
	"consult_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	conf := config.GetConfig()

	if err := logger.Init(&conf.LogConfig, runMode()); err != nil {
		fmt.Printf("日志初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zap.L().Sync() }()

	snowflake.Init(conf.SnowflakeConfig.MachineID)
	myjwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("校验翻译器初始化失败", zap.Error(err))
	}

	// 存储层
	repos := mysql.Init()
	mongoRepos := mongodao.Init()
	myredis.Init()
	cache := myredis.GetCacheService()

	// 业务层
	svcs := service.NewServices(repos, mongoRepos, cache)

	// 实时层
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Mode:       conf.KafkaConfig.MessageMode,
		ThreadRepo: mongoRepos.Thread,
		Store:      svcs.Chat,
		Unread:     svcs.Unread,
	})
	go chatServer.Start()

	// HTTP 层
	handlers := handler.NewHandlers(svcs, chatServer)
	engine := http_server.Init(handlers)

	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	go func() {
		zap.L().Info("HTTP 服务启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP 服务启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("收到退出信号，开始优雅关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("HTTP 服务关闭失败", zap.Error(err))
	}
	chatServer.Close()
	zap.L().Info("服务已退出")
}

// runMode 日志初始化模式：GIN_MODE=release 时按生产格式输出
func runMode() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "release"
	}
	return "dev"
}
