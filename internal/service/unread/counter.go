// Package unread 维护客服端的未读消息计数
// 口径：某用户会话中，由该用户发出且客服尚未读、未被删除的消息数
// 读路径走 cache-aside：缓存命中直接返回，未命中回源聚合统计并写回缓存
package unread

import (
	"context"
	"strconv"
	"time"

	"consult_chat_server/internal/dao/mongo"
	myredis "consult_chat_server/internal/dao/redis"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "unread_count_"

type Counter struct {
	threadRepo mongo.ThreadRepository
	cache      myredis.CacheService
	ttl        time.Duration
}

func NewCounter(threadRepo mongo.ThreadRepository, cache myredis.CacheService) *Counter {
	return &Counter{
		threadRepo: threadRepo,
		cache:      cache,
		ttl:        constants.UNREAD_CACHE_TTL,
	}
}

// Get 返回指定用户会话的未读数
// 缓存异常只降级为回源直查，不向调用方报错；回源失败才返回错误
func (c *Counter) Get(ctx context.Context, userId string) (int64, error) {
	key := cacheKeyPrefix + userId
	if c.cache != nil {
		val, err := c.cache.GetOrError(ctx, key)
		if err == nil {
			if n, perr := strconv.ParseInt(val, 10, 64); perr == nil {
				return n, nil
			}
			zap.L().Warn("未读数缓存内容非法，回源重算", zap.String("key", key), zap.String("value", val))
		} else if !errorx.IsNotFound(err) {
			zap.L().Warn("未读数缓存读取失败，回源重算", zap.String("key", key), zap.Error(err))
		}
	}

	count, err := c.threadRepo.CountUnreadForAdmin(ctx, userId)
	if err != nil {
		return 0, err
	}
	if c.cache != nil {
		// 并发重算时后写的覆盖先写的，值都来自同一落地口径，可接受
		if err := c.cache.Set(ctx, key, strconv.FormatInt(count, 10), c.ttl); err != nil {
			zap.L().Warn("未读数缓存写入失败", zap.String("key", key), zap.Error(err))
		}
	}
	return count, nil
}

// Invalidate 主动失效指定用户的未读数缓存
// 消息写入、批量已读、消息删除之后都要调用，失败只记日志，TTL 会兜底
func (c *Counter) Invalidate(ctx context.Context, userId string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, cacheKeyPrefix+userId); err != nil {
		zap.L().Warn("未读数缓存失效失败", zap.String("user_id", userId), zap.Error(err))
	}
}

// GetAll 全量未读数，客服上线时同步用，直接走存储层聚合不经缓存
func (c *Counter) GetAll(ctx context.Context) (map[string]int64, error) {
	summaries, err := c.threadRepo.AllThreadSummaries(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(summaries))
	for _, s := range summaries {
		counts[s.UserId] = s.UnreadCount
	}
	return counts, nil
}
