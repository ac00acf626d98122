// Package model 定义数据库实体模型
// 本文件定义会话文档模型，存储于 MongoDB
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread 咨询会话文档
// 每个用户有且仅有一个会话，首次访问时懒创建
// 消息以嵌入数组存储，追加顺序即会话内的时间顺序
type Thread struct {
	Id primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	// UserId 会话归属的用户 uuid，唯一索引
	UserId string `bson:"user_id" json:"user_id"`

	// Messages 消息序列，仅通过原子 $push 追加，禁止整文档读改写
	Messages []Message `bson:"messages" json:"messages"`

	// LastReadByAdmin 客服最近一次标记已读的时间
	LastReadByAdmin time.Time `bson:"last_read_by_admin,omitempty" json:"last_read_by_admin,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Message 会话内的单条消息
// 追加后不可变，仅允许编辑内容和软删除两种显式修改
type Message struct {
	// Id 雪花 ID，追加时由服务端分配
	Id int64 `bson:"id" json:"id,string"`

	// SenderId 发送者 uuid，编辑/删除时校验归属
	SenderId string `bson:"sender_id" json:"sender_id"`

	// Type 消息类型：text / image / voice
	Type string `bson:"type" json:"type"`

	// Content 文本内容，或图片/语音的 URL；软删除后清空
	Content string `bson:"content" json:"content"`

	// Duration 语音时长（秒），仅语音消息使用
	Duration int `bson:"duration,omitempty" json:"duration,omitempty"`

	// Timestamp 服务端追加时间
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	// ReadByAdmin 客服是否已读，追加时恒为 false
	ReadByAdmin bool `bson:"read_by_admin" json:"read_by_admin"`

	IsEdited  bool `bson:"is_edited" json:"is_edited"`
	IsDeleted bool `bson:"is_deleted" json:"is_deleted"`
}

// ThreadSummary 会话摘要，用于客服端会话列表
type ThreadSummary struct {
	UserId      string   `bson:"user_id" json:"user_id"`
	LastMessage *Message `bson:"last_message" json:"last_message,omitempty"`
	UnreadCount int64    `bson:"unread_count" json:"unread_count"`
}
