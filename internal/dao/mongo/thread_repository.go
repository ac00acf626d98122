package mongo

import (
	"context"
	"errors"
	"time"

	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/errorx"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const threadCollection = "threads"

// threadRepository ThreadRepository 接口的 MongoDB 实现
type threadRepository struct {
	coll *mongo.Collection
}

// NewThreadRepository 创建 ThreadRepository 实例
func NewThreadRepository(db *mongo.Database) ThreadRepository {
	return &threadRepository{coll: db.Collection(threadCollection)}
}

// wrapMongoError 包装文档存储错误
// ErrNoDocuments -> CodeNotFound，其他错误 -> CodeDBError
func wrapMongoError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// GetOrCreate 返回用户会话，不存在则原子创建
// upsert 保证并发首次访问同一 userId 不会产生两个会话文档
func (r *threadRepository) GetOrCreate(ctx context.Context, userId string) (*model.Thread, error) {
	now := time.Now()
	filter := bson.M{"user_id": userId}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userId,
			"messages":   []model.Message{},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var thread model.Thread
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&thread); err != nil {
		return nil, wrapMongoError(err, "获取或创建会话 user_id=%s", userId)
	}
	return &thread, nil
}

// AppendMessage 原子 $push 追加消息
// 并发追加由存储层的单文档原子更新串行化，不做读改写
func (r *threadRepository) AppendMessage(ctx context.Context, userId string, msg *model.Message) error {
	now := time.Now()
	filter := bson.M{"user_id": userId}
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"user_id":    userId,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return wrapMongoError(err, "追加消息 user_id=%s", userId)
	}
	return nil
}

// FindRecentByContent 查找窗口期内内容相同的消息（去重用）
func (r *threadRepository) FindRecentByContent(ctx context.Context, userId, content string, window time.Duration) (*model.Message, error) {
	cutoff := time.Now().Add(-window)
	match := bson.M{
		"content":    content,
		"is_deleted": false,
		"timestamp":  bson.M{"$gte": cutoff},
	}
	filter := bson.M{
		"user_id":  userId,
		"messages": bson.M{"$elemMatch": match},
	}
	// 投影只取命中的那一条消息
	opts := options.FindOne().SetProjection(bson.M{
		"messages": bson.M{"$elemMatch": match},
	})

	var thread model.Thread
	err := r.coll.FindOne(ctx, filter, opts).Decode(&thread)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapMongoError(err, "查询重复消息 user_id=%s", userId)
	}
	if len(thread.Messages) == 0 {
		return nil, nil
	}
	return &thread.Messages[0], nil
}

// FindMessageByID 按消息 ID 定位消息及其所属会话
func (r *threadRepository) FindMessageByID(ctx context.Context, messageId int64) (string, *model.Message, error) {
	filter := bson.M{"messages.id": messageId}
	opts := options.FindOne().SetProjection(bson.M{
		"user_id":  1,
		"messages": bson.M{"$elemMatch": bson.M{"id": messageId}},
	})

	var thread model.Thread
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&thread); err != nil {
		return "", nil, wrapMongoError(err, "查询消息 id=%d", messageId)
	}
	if len(thread.Messages) == 0 {
		return "", nil, errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", messageId)
	}
	return thread.UserId, &thread.Messages[0], nil
}

// EditMessage 通过 arrayFilters 原子修改指定消息的内容
func (r *threadRepository) EditMessage(ctx context.Context, userId string, messageId int64, content string) error {
	filter := bson.M{"user_id": userId}
	update := bson.M{"$set": bson.M{
		"messages.$[m].content":   content,
		"messages.$[m].is_edited": true,
		"updated_at":              time.Now(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"m.id": messageId}},
	})

	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return wrapMongoError(err, "编辑消息 id=%d", messageId)
	}
	if res.MatchedCount == 0 {
		return errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", messageId)
	}
	return nil
}

// SoftDeleteMessage 软删除：清空内容并置删除标记，保留 id/时间/发送者
func (r *threadRepository) SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error {
	filter := bson.M{"user_id": userId}
	update := bson.M{"$set": bson.M{
		"messages.$[m].content":    "",
		"messages.$[m].is_deleted": true,
		"updated_at":               time.Now(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"m.id": messageId}},
	})

	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return wrapMongoError(err, "删除消息 id=%d", messageId)
	}
	if res.MatchedCount == 0 {
		return errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", messageId)
	}
	return nil
}

// MarkReadFromUser 批量将该用户发出的未读消息置为已读
// 单次 UpdateOne + arrayFilters，不逐条更新
func (r *threadRepository) MarkReadFromUser(ctx context.Context, userId string) (int64, error) {
	filter := bson.M{"user_id": userId}
	update := bson.M{"$set": bson.M{
		"messages.$[m].read_by_admin": true,
		"last_read_by_admin":          time.Now(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"m.sender_id":     userId,
			"m.read_by_admin": false,
		}},
	})

	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return 0, wrapMongoError(err, "标记已读 user_id=%s", userId)
	}
	return res.ModifiedCount, nil
}

// CountUnreadForAdmin 统计该用户发出且客服未读的消息数
// 聚合在存储侧完成，不把整个消息数组拉到应用层
func (r *threadRepository) CountUnreadForAdmin(ctx context.Context, userId string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userId}}},
		{{Key: "$project", Value: bson.M{
			"unread_count": unreadCountExpr(userId),
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, wrapMongoError(err, "统计未读数 user_id=%s", userId)
	}
	defer cursor.Close(ctx)

	var result struct {
		UnreadCount int64 `bson:"unread_count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, wrapMongoError(err, "统计未读数 user_id=%s", userId)
		}
	}
	// 会话尚未创建时未读数为 0
	return result.UnreadCount, nil
}

// AllThreadSummaries 全部会话摘要，按最近活跃排序
func (r *threadRepository) AllThreadSummaries(ctx context.Context) ([]model.ThreadSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.M{"updated_at": -1}}},
		{{Key: "$project", Value: bson.M{
			"user_id":      1,
			"last_message": bson.M{"$arrayElemAt": bson.A{"$messages", -1}},
			"unread_count": unreadCountExpr("$user_id"),
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapMongoError(err, "查询会话摘要")
	}
	defer cursor.Close(ctx)

	var summaries []model.ThreadSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, wrapMongoError(err, "查询会话摘要")
	}
	return summaries, nil
}

// unreadCountExpr 未读数聚合表达式：发送者为会话归属用户、未读且未删除
// sender 传具体 userId 或字段引用 "$user_id"
func unreadCountExpr(sender interface{}) bson.M {
	return bson.M{"$size": bson.M{"$filter": bson.M{
		"input": "$messages",
		"as":    "m",
		"cond": bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$$m.sender_id", sender}},
			bson.M{"$eq": bson.A{"$$m.read_by_admin", false}},
			bson.M{"$eq": bson.A{"$$m.is_deleted", false}},
		}},
	}}}
}
