// Package http_server 装配 gin 引擎：中间件、静态资源与路由
package http_server

import (
	"consult_chat_server/internal/config"
	"consult_chat_server/internal/handler"
	"consult_chat_server/internal/infrastructure/logger"
	"consult_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 构建并返回配置完毕的 gin 引擎
func Init(handlers *handler.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	conf := config.GetConfig()
	// 上传的图片/语音通过静态路由对外提供
	r.Static("/static/files", conf.StaticSrcConfig.StaticFilePath+"/files")

	router.NewRouter(handlers).RegisterRoutes(r)
	return r
}
