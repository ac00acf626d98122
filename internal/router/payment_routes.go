package router

import (
	"consult_chat_server/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (rt *Router) registerPaymentRoutes(api *gin.RouterGroup) {
	payment := api.Group("/payment")
	{
		// 注册费下单发生在注册之前，回调来自外部网关，二者都不走登录态
		payment.POST("/register-order", rt.handlers.Payment.CreateRegisterOrder)
		payment.POST("/notify", rt.handlers.Payment.Notify)
		payment.POST("/credit-order", middleware.JWTAuth(), rt.handlers.Payment.CreateCreditOrder)
	}
}
