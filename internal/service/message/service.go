// Package message 实现消息读写与文件上传
// 这是系统里唯一装配消息下发信封、唯一给消息分配 ID 和服务端时间戳的地方
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"consult_chat_server/internal/config"
	"consult_chat_server/internal/dao/mongo"
	myredis "consult_chat_server/internal/dao/redis"
	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/enum/message/message_type_enum"
	"consult_chat_server/pkg/errorx"
	"consult_chat_server/pkg/util/random"
	"consult_chat_server/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const messageListKeyPrefix = "message_list_"

type chatService struct {
	threadRepo mongo.ThreadRepository
	cache      myredis.AsyncCacheService
}

func NewChatService(threadRepo mongo.ThreadRepository, cache myredis.AsyncCacheService) *chatService {
	return &chatService{
		threadRepo: threadRepo,
		cache:      cache,
	}
}

// GetOrCreateChat 返回用户的会话，首次访问时创建空会话
func (s *chatService) GetOrCreateChat(ctx context.Context, userId string) (*model.Thread, error) {
	return s.threadRepo.GetOrCreate(ctx, userId)
}

// SaveMessage 持久化一条消息
// ID 和时间戳在这里分配，客户端传入的任何时间一律忽略
func (s *chatService) SaveMessage(ctx context.Context, userId, senderId, msgType, content string, duration int) (*model.Message, error) {
	if !message_type_enum.IsValid(msgType) {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "不支持的消息类型 %q", msgType)
	}
	msg := &model.Message{
		Id:          snowflake.GenerateID(),
		SenderId:    senderId,
		Type:        msgType,
		Content:     content,
		Duration:    duration,
		Timestamp:   time.Now(),
		ReadByAdmin: false,
	}
	if err := s.threadRepo.AppendMessage(ctx, userId, msg); err != nil {
		return nil, err
	}
	s.invalidateMessageList(userId)
	return msg, nil
}

// EditMessage 修改消息内容，同时失效该会话的历史缓存
// 会话内容的任何变更都必须经过本服务，否则 REST 历史会读到过期缓存
func (s *chatService) EditMessage(ctx context.Context, userId string, messageId int64, content string) error {
	if err := s.threadRepo.EditMessage(ctx, userId, messageId, content); err != nil {
		return err
	}
	s.invalidateMessageList(userId)
	return nil
}

// SoftDeleteMessage 软删除消息，同时失效该会话的历史缓存
func (s *chatService) SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error {
	if err := s.threadRepo.SoftDeleteMessage(ctx, userId, messageId); err != nil {
		return err
	}
	s.invalidateMessageList(userId)
	return nil
}

// GetMessageList 返回某个会话的全部消息信封，带短 TTL 缓存
func (s *chatService) GetMessageList(ctx context.Context, userId string) ([]respond.ChatMessageRespond, error) {
	key := messageListKeyPrefix + userId
	if s.cache != nil {
		cached, err := s.cache.GetOrError(ctx, key)
		if err == nil {
			var list []respond.ChatMessageRespond
			if uerr := json.Unmarshal([]byte(cached), &list); uerr == nil {
				return list, nil
			}
			zap.L().Warn("聊天记录缓存内容非法，回源重建", zap.String("key", key))
		} else if !errorx.IsNotFound(err) {
			zap.L().Warn("聊天记录缓存读取失败", zap.String("key", key), zap.Error(err))
		}
	}

	thread, err := s.threadRepo.GetOrCreate(ctx, userId)
	if err != nil {
		return nil, err
	}
	list := make([]respond.ChatMessageRespond, 0, len(thread.Messages))
	for i := range thread.Messages {
		msg := &thread.Messages[i]
		// 客服发出的消息 sender 不等于会话归属用户
		isAdmin := msg.SenderId != thread.UserId
		list = append(list, *respond.NewChatMessageRespond(thread.UserId, msg, isAdmin))
	}

	if s.cache != nil {
		if encoded, merr := json.Marshal(list); merr == nil {
			s.cache.SubmitTask(func() {
				if err := s.cache.Set(context.Background(), key, string(encoded), constants.MESSAGE_LIST_CACHE_TTL); err != nil {
					zap.L().Warn("聊天记录缓存写入失败", zap.String("key", key), zap.Error(err))
				}
			})
		}
	}
	return list, nil
}

// GetChatSummaries 客服端会话列表：每个会话的最后一条消息 + 未读数
func (s *chatService) GetChatSummaries(ctx context.Context) ([]respond.ChatSummaryRespond, error) {
	summaries, err := s.threadRepo.AllThreadSummaries(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]respond.ChatSummaryRespond, 0, len(summaries))
	for _, summary := range summaries {
		item := respond.ChatSummaryRespond{
			UserId:      summary.UserId,
			UnreadCount: summary.UnreadCount,
		}
		if summary.LastMessage != nil {
			isAdmin := summary.LastMessage.SenderId != summary.UserId
			item.LastMessage = respond.NewChatMessageRespond(summary.UserId, summary.LastMessage, isAdmin)
		}
		list = append(list, item)
	}
	return list, nil
}

// 上传文件允许的 MIME 类型，按文件头嗅探判定而非扩展名
var allowedUploadMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"audio/mpeg": true,
	"audio/wave": true,
	"audio/ogg":  true,
	"video/webm": true, // 浏览器录制的语音消息常见为 webm 容器
}

// UploadFile 保存聊天文件（图片/语音），返回可访问的静态路径
func (s *chatService) UploadFile(c *gin.Context) (string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeInvalidParam, "缺少上传文件")
	}
	if fileHeader.Size > constants.FILE_MAX_SIZE*1024 {
		return "", errorx.New(errorx.CodeInvalidParam, "文件大小超出限制")
	}
	mimeType, err := sniffMime(fileHeader)
	if err != nil {
		return "", err
	}
	if !allowedUploadMime[mimeType] {
		return "", errorx.Newf(errorx.CodeInvalidParam, "不支持的文件类型 %s", mimeType)
	}

	conf := config.GetConfig()
	ext := filepath.Ext(fileHeader.Filename)
	fileName := fmt.Sprintf("%s%s", random.GetNowAndLenRandomString(10), ext)
	saveDir := filepath.Join(conf.StaticSrcConfig.StaticFilePath, "files")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "创建上传目录失败")
	}
	if err := c.SaveUploadedFile(fileHeader, filepath.Join(saveDir, fileName)); err != nil {
		zap.L().Error("保存上传文件失败", zap.String("file", fileName), zap.Error(err))
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "保存文件失败")
	}
	return "/static/files/" + fileName, nil
}

// sniffMime 读取文件头嗅探真实 MIME 类型
func sniffMime(fileHeader *multipart.FileHeader) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeInvalidParam, "无法读取上传文件")
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", errorx.Wrap(err, errorx.CodeInvalidParam, "无法读取上传文件")
	}
	return http.DetectContentType(head[:n]), nil
}

// invalidateMessageList 会话变更（新增/编辑/删除）后异步失效该会话的历史缓存
func (s *chatService) invalidateMessageList(userId string) {
	if s.cache == nil {
		return
	}
	key := messageListKeyPrefix + userId
	s.cache.SubmitTask(func() {
		if err := s.cache.Delete(context.Background(), key); err != nil {
			zap.L().Warn("聊天记录缓存失效失败", zap.String("key", key), zap.Error(err))
		}
	})
}
