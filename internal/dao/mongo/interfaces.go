// Package mongo 提供会话消息的文档存储层
// 每个用户一个会话文档，消息序列只通过原子更新原语修改，
// 禁止读出整个文档再写回，避免并发追加导致丢失更新
package mongo

import (
	"context"
	"time"

	"consult_chat_server/internal/model"
)

// ThreadRepository 会话文档数据访问接口
// 所有方法在底层存储不可用时返回 CodeDBError 包装的错误，由调用方向上传播
type ThreadRepository interface {
	// GetOrCreate 返回用户的会话，不存在则创建空会话
	// 通过 upsert 保证并发首次访问不会产生两个会话
	GetOrCreate(ctx context.Context, userId string) (*model.Thread, error)

	// AppendMessage 原子追加一条消息到用户会话（会话不存在时一并创建）
	AppendMessage(ctx context.Context, userId string, msg *model.Message) error

	// FindRecentByContent 查找该会话内指定窗口期中内容相同的消息，用于去重
	// 未找到返回 (nil, nil)
	FindRecentByContent(ctx context.Context, userId, content string, window time.Duration) (*model.Message, error)

	// FindMessageByID 按消息 ID 定位消息及其所属会话的用户
	// 不存在返回 CodeNotFound
	FindMessageByID(ctx context.Context, messageId int64) (string, *model.Message, error)

	// EditMessage 修改消息内容并置 is_edited，调用方需已完成归属校验
	EditMessage(ctx context.Context, userId string, messageId int64, content string) error

	// SoftDeleteMessage 软删除：清空内容并置 is_deleted，保留 id/时间/发送者
	SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error

	// MarkReadFromUser 批量将该用户发出的未读消息置为已读，返回修改条数
	MarkReadFromUser(ctx context.Context, userId string) (int64, error)

	// CountUnreadForAdmin 统计该用户发出且客服未读的消息数（未读数的落地口径）
	CountUnreadForAdmin(ctx context.Context, userId string) (int64, error)

	// AllThreadSummaries 全部会话摘要：最后一条消息 + 未读数，用于客服端列表
	AllThreadSummaries(ctx context.Context) ([]model.ThreadSummary, error)
}
