// Package message_type_enum 定义消息类型枚举
package message_type_enum

// 消息类型，与前端及持久层的取值保持一致
const (
	Text  = "text"  // 文本消息
	Image = "image" // 图片消息，Content 为图片 URL
	Voice = "voice" // 语音消息，Content 为语音 URL
)

// IsValid 校验消息类型是否合法
func IsValid(t string) bool {
	switch t {
	case Text, Image, Voice:
		return true
	}
	return false
}
