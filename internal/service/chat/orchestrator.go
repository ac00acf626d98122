// orchestrator.go
// 核心职责：上行事件的投递编排
// sendMessage 固定按 校验 -> 归属解析 -> 去重 -> 落库 -> 装配信封 -> 扇出 -> 回执 的顺序执行，
// 落库成功之前不向任何房间广播；任一步失败都转换为 messageError + 错误回执
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"consult_chat_server/internal/dao/mongo"
	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/enum/message/message_type_enum"
	"consult_chat_server/pkg/errorx"
	"consult_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// ChatStore 编排器需要的消息持久化能力，由 message 服务实现
// 编辑与删除也走这里而不是直连存储层，保证历史缓存随任何会话变更一起失效
type ChatStore interface {
	SaveMessage(ctx context.Context, userId, senderId, msgType, content string, duration int) (*model.Message, error)
	EditMessage(ctx context.Context, userId string, messageId int64, content string) error
	SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error
}

// UnreadCounter 编排器需要的未读数能力，由 unread 服务实现
type UnreadCounter interface {
	Get(ctx context.Context, userId string) (int64, error)
	Invalidate(ctx context.Context, userId string)
	GetAll(ctx context.Context) (map[string]int64, error)
}

// Orchestrator 投递编排器，不持有连接，扇出全部走 broker
type Orchestrator struct {
	threadRepo   mongo.ThreadRepository
	store        ChatStore
	unread       UnreadCounter
	broker       EventBroker
	dedupeWindow time.Duration
}

func NewOrchestrator(threadRepo mongo.ThreadRepository, store ChatStore, unread UnreadCounter, broker EventBroker) *Orchestrator {
	return &Orchestrator{
		threadRepo:   threadRepo,
		store:        store,
		unread:       unread,
		broker:       broker,
		dedupeWindow: constants.DEDUPE_WINDOW,
	}
}

// HandleSendMessage 处理 sendMessage 事件
func (o *Orchestrator) HandleSendMessage(ctx context.Context, conn *UserConn, ackId int64, data json.RawMessage) {
	var req request.SendChatMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		o.fail(conn, ackId, "", errorx.Wrap(err, errorx.CodeInvalidParam, "事件载荷格式错误"))
		return
	}
	envelope, err := o.sendMessage(ctx, conn.Session, &req)
	if err != nil {
		o.fail(conn, ackId, req.TempId, err)
		return
	}
	// 发送方直接收到投递确认，不依赖房间订阅
	conn.Push(EventMessageDelivered, envelope)
	conn.Ack(ackId, AckSuccess, envelope, "")
}

func (o *Orchestrator) sendMessage(ctx context.Context, sess *Session, req *request.SendChatMessageRequest) (*respond.ChatMessageRespond, error) {
	// 1. 内容校验
	if !message_type_enum.IsValid(req.MessageType) {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "不支持的消息类型 %q", req.MessageType)
	}
	if req.Content == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}

	// 2. 会话归属解析
	chatId, err := resolveChatId(sess, req.TargetUserId)
	if err != nil {
		return nil, err
	}

	// 3. 去重窗口：同一会话短时间内的相同内容拒收
	dup, err := o.threadRepo.FindRecentByContent(ctx, chatId, req.Content, o.dedupeWindow)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, errorx.ErrDuplicateMessage
	}

	// 4. 落库，失败则整个发送流程终止，不产生任何广播
	msg, err := o.store.SaveMessage(ctx, chatId, sess.UserId, req.MessageType, req.Content, req.Duration)
	if err != nil {
		return nil, err
	}

	// 5. 装配下发信封
	envelope := respond.NewChatMessageRespond(chatId, msg, sess.Actor.IsAdmin())

	// 6. 扇出：用户消息推给客服房间，客服消息推给目标用户房间
	room := chatId
	if !sess.Actor.IsAdmin() {
		room = constants.ADMIN_ROOM
	}
	o.publish(ctx, []string{room}, EventNewMessage, envelope)

	// 普通用户发出新消息后，客服端未读数需要立刻刷新
	if !sess.Actor.IsAdmin() {
		o.refreshUnread(ctx, chatId)
	}
	return envelope, nil
}

// resolveChatId 解析消息应写入哪个用户的会话
// 客服必须指明目标用户；普通用户只能写自己的会话，指向他人一律拒绝
func resolveChatId(sess *Session, target string) (string, error) {
	if sess.Actor.IsAdmin() {
		if target == "" {
			return "", errorx.New(errorx.CodeInvalidParam, "缺少 targetUserId")
		}
		return target, nil
	}
	if target != "" && target != sess.UserId {
		return "", errorx.ErrForbidden
	}
	return sess.UserId, nil
}

// HandleEditMessage 处理 editMessage 事件，只有消息发送者本人可编辑
func (o *Orchestrator) HandleEditMessage(ctx context.Context, conn *UserConn, ackId int64, data json.RawMessage) {
	var req request.EditMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		o.fail(conn, ackId, "", errorx.Wrap(err, errorx.CodeInvalidParam, "事件载荷格式错误"))
		return
	}
	if req.Content == "" {
		o.fail(conn, ackId, "", errorx.New(errorx.CodeInvalidParam, "消息内容不能为空"))
		return
	}
	chatId, msg, err := o.locateOwnMessage(ctx, conn.Session, req.MessageId)
	if err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	if err := o.store.EditMessage(ctx, chatId, msg.Id, req.Content); err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	edited := respond.MessageEditedRespond{
		Id:       req.MessageId,
		ChatId:   chatId,
		Content:  req.Content,
		IsEdited: true,
	}
	// 会话双方都要看到编辑结果
	o.publish(ctx, []string{chatId, constants.ADMIN_ROOM}, EventMessageEdited, edited)
	conn.Ack(ackId, AckSuccess, edited, "")
}

// HandleDeleteMessage 处理 deleteMessage 事件（软删除），只有发送者本人可删除
func (o *Orchestrator) HandleDeleteMessage(ctx context.Context, conn *UserConn, ackId int64, data json.RawMessage) {
	var req request.DeleteMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		o.fail(conn, ackId, "", errorx.Wrap(err, errorx.CodeInvalidParam, "事件载荷格式错误"))
		return
	}
	chatId, msg, err := o.locateOwnMessage(ctx, conn.Session, req.MessageId)
	if err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	if err := o.store.SoftDeleteMessage(ctx, chatId, msg.Id); err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	deleted := respond.MessageDeletedRespond{Id: req.MessageId, ChatId: chatId}
	o.publish(ctx, []string{chatId, constants.ADMIN_ROOM}, EventMessageDeleted, deleted)
	conn.Ack(ackId, AckSuccess, deleted, "")
	// 被删除的可能是未读消息，刷新一次该会话的未读数
	o.refreshUnread(ctx, chatId)
}

// locateOwnMessage 定位消息并校验归属
// 消息不存在/已删除返回 CodeNotFound，非本人消息返回 CodeForbidden
func (o *Orchestrator) locateOwnMessage(ctx context.Context, sess *Session, messageId string) (string, *model.Message, error) {
	id, err := snowflake.ParseIDString(messageId)
	if err != nil {
		return "", nil, errorx.Wrap(err, errorx.CodeInvalidParam, "非法的消息 ID")
	}
	chatId, msg, err := o.threadRepo.FindMessageByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if msg.SenderId != sess.UserId {
		return "", nil, errorx.ErrForbidden
	}
	if msg.IsDeleted {
		return "", nil, errorx.New(errorx.CodeNotFound, "消息已删除")
	}
	return chatId, msg, nil
}

// HandleMarkMessagesAsRead 处理客服的批量已读事件
func (o *Orchestrator) HandleMarkMessagesAsRead(ctx context.Context, conn *UserConn, ackId int64, data json.RawMessage) {
	var req request.MarkMessagesAsReadRequest
	if err := json.Unmarshal(data, &req); err != nil {
		o.fail(conn, ackId, "", errorx.Wrap(err, errorx.CodeInvalidParam, "事件载荷格式错误"))
		return
	}
	if req.ChatId == "" {
		o.fail(conn, ackId, "", errorx.New(errorx.CodeInvalidParam, "缺少 chatId"))
		return
	}
	if _, err := o.threadRepo.MarkReadFromUser(ctx, req.ChatId); err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	// 用户端收到已读回执
	readResp := respond.MessagesReadRespond{
		ChatId: req.ChatId,
		ReadAt: time.Now().Format(constants.TIME_LAYOUT),
	}
	o.publish(ctx, []string{req.ChatId}, EventMessagesRead, readResp)
	// 客服端收到归零后的未读数
	o.refreshUnread(ctx, req.ChatId)
	conn.Ack(ackId, AckSuccess, readResp, "")
}

// HandleSyncUnreadCounts 客服上线后的未读数全量同步
func (o *Orchestrator) HandleSyncUnreadCounts(ctx context.Context, conn *UserConn, ackId int64) {
	counts, err := o.unread.GetAll(ctx)
	if err != nil {
		o.fail(conn, ackId, "", err)
		return
	}
	conn.Push(EventInitialUnreadCounts, counts)
	conn.Ack(ackId, AckSuccess, counts, "")
}

// refreshUnread 失效缓存并重算该会话未读数，把最新值推给客服房间
func (o *Orchestrator) refreshUnread(ctx context.Context, chatId string) {
	o.unread.Invalidate(ctx, chatId)
	count, err := o.unread.Get(ctx, chatId)
	if err != nil {
		zap.L().Warn("未读数重算失败", zap.String("chat_id", chatId), zap.Error(err))
		return
	}
	o.publish(ctx, []string{constants.ADMIN_ROOM}, EventUpdateUnreadCount, respond.UnreadCountRespond{
		UserId:      chatId,
		UnreadCount: count,
	})
}

// publish 编码载荷并交给 broker 扇出
func (o *Orchestrator) publish(ctx context.Context, rooms []string, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("事件载荷编码失败", zap.String("event", event), zap.Error(err))
		return
	}
	if err := o.broker.Publish(ctx, &OutboundEvent{Rooms: rooms, Event: event, Data: payload}); err != nil {
		zap.L().Error("事件发布失败", zap.String("event", event), zap.Error(err))
	}
}

// fail 统一的失败路径：messageError 推送 + 错误回执
func (o *Orchestrator) fail(conn *UserConn, ackId int64, tempId string, err error) {
	code := errorx.GetCode(err)
	msg := err.Error()
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		// 只把业务描述透出给客户端，底层错误细节留在日志里
		msg = codeErr.Msg
	}
	conn.Push(EventMessageError, MessageErrorRespond{TempId: tempId, Code: code, Error: msg})
	conn.Ack(ackId, AckError, nil, msg)
	zap.L().Warn("聊天事件被拒绝",
		zap.String("user_id", conn.Session.UserId),
		zap.Int("code", code),
		zap.Error(err))
}
