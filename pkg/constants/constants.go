package constants

import "time"

const (
	CHANNEL_SIZE  = 100   // 通道大小
	FILE_MAX_SIZE = 50000 // 上传文件最大大小

	// DEDUPE_WINDOW 消息去重窗口：同一会话内相同内容在该窗口内视为重复提交
	DEDUPE_WINDOW = 5 * time.Second

	// UNREAD_CACHE_TTL 未读数缓存过期时间
	UNREAD_CACHE_TTL = 5 * time.Minute

	// MESSAGE_LIST_CACHE_TTL 聊天记录缓存过期时间
	MESSAGE_LIST_CACHE_TTL = 1 * time.Minute

	// ADMIN_ROOM 所有客服共享的广播房间，普通用户房间以自己的 uuid 命名
	ADMIN_ROOM = "admin-room"

	// TIME_LAYOUT 对外输出的统一时间格式
	TIME_LAYOUT = "2006-01-02 15:04:05"
)
