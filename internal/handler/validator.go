// validator.go
// 核心职责：gin binding 校验错误的中文翻译
package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

var trans ut.Translator

// InitTrans 初始化校验错误翻译器，locale 支持 zh/en
func InitTrans(locale string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("初始化翻译器失败：校验引擎类型不匹配")
	}
	// 错误提示里用 json tag 而不是结构体字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	zhT := zh.New()
	enT := en.New()
	uni := ut.New(enT, zhT, enT)
	var found bool
	trans, found = uni.GetTranslator(locale)
	if !found {
		return fmt.Errorf("初始化翻译器失败：不支持的 locale %q", locale)
	}
	switch locale {
	case "en":
		return enTranslations.RegisterDefaultTranslations(v, trans)
	default:
		return zhTranslations.RegisterDefaultTranslations(v, trans)
	}
}

// translateError 将校验错误翻译为可读消息，非校验错误原样返回
func translateError(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || trans == nil {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, m := range validationErrs.Translate(trans) {
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}
