// Package handler 实现 HTTP 接口层
// response.go 统一响应格式：{code, message, data}
package handler

import (
	"errors"
	"net/http"

	"consult_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// Response 统一响应体
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// HandleSuccess 成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// HandleError 失败响应，业务码映射为对应的 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	code := errorx.GetCode(err)
	msg := err.Error()
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		// 底层错误细节不透出给客户端
		msg = codeErr.Msg
	}
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: msg,
	})
}

// HandleParamError 请求参数错误响应
func HandleParamError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    errorx.CodeInvalidParam,
		Message: translateError(err),
	})
}

func httpStatus(code int) int {
	switch code {
	case errorx.CodeInvalidParam:
		return http.StatusBadRequest
	case errorx.CodeUnauthorized:
		return http.StatusUnauthorized
	case errorx.CodeForbidden:
		return http.StatusForbidden
	case errorx.CodeNotFound:
		return http.StatusNotFound
	case errorx.CodeUserExist, errorx.CodeDuplicateMessage:
		return http.StatusConflict
	case errorx.CodePaymentRequired:
		return http.StatusPaymentRequired
	case errorx.CodeUserNotExist, errorx.CodeInvalidPassword:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
