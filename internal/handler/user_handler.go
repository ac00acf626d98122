// user_handler.go
// 核心职责：账号相关 HTTP 接口
package handler

import (
	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/middleware"
	"consult_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register 注册新用户
// POST /api/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.Register(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// Login 登录
// POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.Login(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// RefreshToken 刷新 Access Token
// POST /api/auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.RefreshToken(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetMe 查询当前登录用户资料
// GET /api/user/me
func (h *UserHandler) GetMe(c *gin.Context) {
	rsp, err := h.userService.GetUserInfo(c.GetString(middleware.ContextUserIdKey))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// UpdateMe 更新当前登录用户资料
// PUT /api/user/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req request.UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.userService.UpdateUserInfo(c.GetString(middleware.ContextUserIdKey), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
