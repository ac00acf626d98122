package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"
	"consult_chat_server/internal/service/message"
	"consult_chat_server/internal/service/unread"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/errorx"
	"consult_chat_server/pkg/util/snowflake"
)

func TestMain(m *testing.M) {
	snowflake.Init(1)
	m.Run()
}

// memoryThreadRepo 内存会话存储，并发安全，行为对齐文档存储的原子更新语义
type memoryThreadRepo struct {
	mu      sync.Mutex
	threads map[string][]model.Message
}

func newMemoryThreadRepo() *memoryThreadRepo {
	return &memoryThreadRepo{threads: make(map[string][]model.Message)}
}

func (r *memoryThreadRepo) GetOrCreate(ctx context.Context, userId string) (*model.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[userId]; !ok {
		r.threads[userId] = []model.Message{}
	}
	msgs := make([]model.Message, len(r.threads[userId]))
	copy(msgs, r.threads[userId])
	return &model.Thread{UserId: userId, Messages: msgs}, nil
}

func (r *memoryThreadRepo) AppendMessage(ctx context.Context, userId string, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[userId] = append(r.threads[userId], *msg)
	return nil
}

func (r *memoryThreadRepo) FindRecentByContent(ctx context.Context, userId, content string, window time.Duration) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for i := range r.threads[userId] {
		m := &r.threads[userId][i]
		if !m.IsDeleted && m.Content == content && m.Timestamp.After(cutoff) {
			found := *m
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryThreadRepo) FindMessageByID(ctx context.Context, messageId int64) (string, *model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userId, msgs := range r.threads {
		for i := range msgs {
			if msgs[i].Id == messageId {
				found := msgs[i]
				return userId, &found, nil
			}
		}
	}
	return "", nil, errorx.New(errorx.CodeNotFound, "消息不存在")
}

func (r *memoryThreadRepo) EditMessage(ctx context.Context, userId string, messageId int64, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.threads[userId] {
		if r.threads[userId][i].Id == messageId {
			r.threads[userId][i].Content = content
			r.threads[userId][i].IsEdited = true
			return nil
		}
	}
	return errorx.New(errorx.CodeNotFound, "消息不存在")
}

func (r *memoryThreadRepo) SoftDeleteMessage(ctx context.Context, userId string, messageId int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.threads[userId] {
		if r.threads[userId][i].Id == messageId {
			r.threads[userId][i].Content = ""
			r.threads[userId][i].IsDeleted = true
			return nil
		}
	}
	return errorx.New(errorx.CodeNotFound, "消息不存在")
}

func (r *memoryThreadRepo) MarkReadFromUser(ctx context.Context, userId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.threads[userId] {
		m := &r.threads[userId][i]
		if m.SenderId == userId && !m.ReadByAdmin {
			m.ReadByAdmin = true
			n++
		}
	}
	return n, nil
}

func (r *memoryThreadRepo) CountUnreadForAdmin(ctx context.Context, userId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.threads[userId] {
		m := &r.threads[userId][i]
		if m.SenderId == userId && !m.ReadByAdmin && !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *memoryThreadRepo) AllThreadSummaries(ctx context.Context) ([]model.ThreadSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := make([]model.ThreadSummary, 0, len(r.threads))
	for userId, msgs := range r.threads {
		s := model.ThreadSummary{UserId: userId}
		for i := range msgs {
			m := &msgs[i]
			if m.SenderId == userId && !m.ReadByAdmin && !m.IsDeleted {
				s.UnreadCount++
			}
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			s.LastMessage = &last
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (r *memoryThreadRepo) messageCount(userId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads[userId])
}

func (r *memoryThreadRepo) messageAt(userId string, i int) model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threads[userId][i]
}

// captureBroker 记录发布的事件信封，不真正投递
type captureBroker struct {
	mu     sync.Mutex
	events []*OutboundEvent
}

func (b *captureBroker) Publish(ctx context.Context, evt *OutboundEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *captureBroker) Start() {}
func (b *captureBroker) Close() {}

func (b *captureBroker) all() []*OutboundEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*OutboundEvent, len(b.events))
	copy(out, b.events)
	return out
}

// byEvent 取指定事件名的最后一个信封，没有则返回 nil
func (b *captureBroker) byEvent(event string) *OutboundEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == event {
			return b.events[i]
		}
	}
	return nil
}

func newTestOrchestrator(repo *memoryThreadRepo) (*Orchestrator, *captureBroker) {
	broker := &captureBroker{}
	store := message.NewChatService(repo, nil)
	counter := unread.NewCounter(repo, nil)
	return NewOrchestrator(repo, store, counter, broker), broker
}

func newTestConn(userId string, actor Actor) *UserConn {
	role := "user"
	if actor.IsAdmin() {
		role = "admin"
	}
	return &UserConn{
		Session: &Session{
			ConnId: "conn-" + userId,
			UserId: userId,
			Role:   role,
			Actor:  actor,
			Rooms:  RoomsFor(userId, actor),
		},
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
}

// drainFrames 读出连接上已入队的全部下行帧
func drainFrames(t *testing.T, conn *UserConn) map[string][]json.RawMessage {
	t.Helper()
	frames := make(map[string][]json.RawMessage)
	for {
		select {
		case payload := <-conn.SendBack:
			var frame struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(payload, &frame); err != nil {
				t.Fatalf("下行帧解析失败: %v", err)
			}
			frames[frame.Event] = append(frames[frame.Event], frame.Data)
		default:
			return frames
		}
	}
}

func lastAck(t *testing.T, frames map[string][]json.RawMessage) *AckRespond {
	t.Helper()
	acks := frames[EventAck]
	if len(acks) == 0 {
		t.Fatal("期望收到 ack 回执")
	}
	var ack AckRespond
	if err := json.Unmarshal(acks[len(acks)-1], &ack); err != nil {
		t.Fatalf("ack 解析失败: %v", err)
	}
	return &ack
}

func sendPayload(targetUserId, msgType, content, tempId string) json.RawMessage {
	payload, _ := json.Marshal(map[string]any{
		"targetUserId": targetUserId,
		"messageType":  msgType,
		"content":      content,
		"tempId":       tempId,
	})
	return payload
}

func TestSendMessageFromEndUser(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), conn, 1, sendPayload("", "text", "你好", "tmp-1"))

	if got := repo.messageCount("u1"); got != 1 {
		t.Fatalf("期望落库 1 条消息，实际 %d", got)
	}
	stored := repo.messageAt("u1", 0)
	if stored.SenderId != "u1" || stored.ReadByAdmin {
		t.Fatalf("落库消息字段不符: %+v", stored)
	}
	if stored.Id == 0 || stored.Timestamp.IsZero() {
		t.Fatal("消息 ID 与时间戳应由服务端分配")
	}

	newMsg := broker.byEvent(EventNewMessage)
	if newMsg == nil {
		t.Fatal("期望向客服房间扇出 newMessage")
	}
	if len(newMsg.Rooms) != 1 || newMsg.Rooms[0] != constants.ADMIN_ROOM {
		t.Fatalf("用户消息应只进客服房间，实际 %v", newMsg.Rooms)
	}
	var envelope respond.ChatMessageRespond
	if err := json.Unmarshal(newMsg.Data, &envelope); err != nil {
		t.Fatalf("信封解析失败: %v", err)
	}
	if envelope.ChatId != "u1" || envelope.IsAdmin || envelope.Status != "delivered" {
		t.Fatalf("信封字段不符: %+v", envelope)
	}

	unreadEvt := broker.byEvent(EventUpdateUnreadCount)
	if unreadEvt == nil {
		t.Fatal("用户消息落库后应向客服房间推送未读数")
	}
	var count respond.UnreadCountRespond
	_ = json.Unmarshal(unreadEvt.Data, &count)
	if count.UserId != "u1" || count.UnreadCount != 1 {
		t.Fatalf("未读数推送不符: %+v", count)
	}

	frames := drainFrames(t, conn)
	if len(frames[EventMessageDelivered]) != 1 {
		t.Fatal("发送方应收到 messageDelivered")
	}
	if ack := lastAck(t, frames); ack.Status != AckSuccess || ack.AckId != 1 {
		t.Fatalf("ack 不符: %+v", ack)
	}
}

func TestSendMessageFromAdminGoesToUserRoom(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("a1", ActorAdmin)

	orch.HandleSendMessage(context.Background(), conn, 2, sendPayload("u7", "text", "您好，有什么可以帮您", ""))

	if got := repo.messageCount("u7"); got != 1 {
		t.Fatalf("客服消息应写入目标用户会话，实际 %d 条", got)
	}
	newMsg := broker.byEvent(EventNewMessage)
	if newMsg == nil || len(newMsg.Rooms) != 1 || newMsg.Rooms[0] != "u7" {
		t.Fatalf("客服消息应只进目标用户房间: %+v", newMsg)
	}
	if evt := broker.byEvent(EventUpdateUnreadCount); evt != nil {
		t.Fatal("客服消息不应触发未读数推送")
	}
	var envelope respond.ChatMessageRespond
	_ = json.Unmarshal(newMsg.Data, &envelope)
	if !envelope.IsAdmin || envelope.ChatId != "u7" {
		t.Fatalf("信封字段不符: %+v", envelope)
	}
}

func TestSendMessageAdminRequiresTarget(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("a1", ActorAdmin)

	orch.HandleSendMessage(context.Background(), conn, 3, sendPayload("", "text", "hi", ""))

	if len(broker.all()) != 0 {
		t.Fatal("参数错误不应产生任何扇出")
	}
	frames := drainFrames(t, conn)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeInvalidParam {
		t.Fatalf("期望参数错误码，实际 %d", msgErr.Code)
	}
	if ack := lastAck(t, frames); ack.Status != AckError {
		t.Fatal("期望错误回执")
	}
}

func TestSendMessageForeignThreadForbidden(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), conn, 4, sendPayload("u2", "text", "偷看", "tmp-4"))

	if repo.messageCount("u1")+repo.messageCount("u2") != 0 {
		t.Fatal("越权消息不应落库")
	}
	if len(broker.all()) != 0 {
		t.Fatal("越权消息不应扇出")
	}
	frames := drainFrames(t, conn)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeForbidden || msgErr.TempId != "tmp-4" {
		t.Fatalf("messageError 不符: %+v", msgErr)
	}
}

func TestSendMessageInvalidType(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), conn, 5, sendPayload("", "video", "x", ""))
	orch.HandleSendMessage(context.Background(), conn, 6, sendPayload("", "text", "", ""))

	if repo.messageCount("u1") != 0 || len(broker.all()) != 0 {
		t.Fatal("非法消息不应落库或扇出")
	}
	frames := drainFrames(t, conn)
	if len(frames[EventMessageError]) != 2 {
		t.Fatalf("期望 2 个 messageError，实际 %d", len(frames[EventMessageError]))
	}
}

func TestSendMessageDuplicateWindow(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, _ := newTestOrchestrator(repo)
	conn := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), conn, 7, sendPayload("", "text", "同样的话", ""))
	orch.HandleSendMessage(context.Background(), conn, 8, sendPayload("", "text", "同样的话", "tmp-8"))

	if got := repo.messageCount("u1"); got != 1 {
		t.Fatalf("窗口期内重复内容只应落库 1 条，实际 %d", got)
	}
	frames := drainFrames(t, conn)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeDuplicateMessage || msgErr.TempId != "tmp-8" {
		t.Fatalf("messageError 不符: %+v", msgErr)
	}
	// 不同内容不受去重影响
	orch.HandleSendMessage(context.Background(), conn, 9, sendPayload("", "text", "另一句话", ""))
	if got := repo.messageCount("u1"); got != 2 {
		t.Fatalf("不同内容应正常落库，实际 %d 条", got)
	}
}

func TestConcurrentSendsNoLoss(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, _ := newTestOrchestrator(repo)

	const perSender = 30
	var wg sync.WaitGroup
	for _, sender := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			conn := newTestConn(sender, ActorEndUser)
			for i := 0; i < perSender; i++ {
				payload := sendPayload("", "text", fmt.Sprintf("%s 的第 %d 条", sender, i), "")
				orch.HandleSendMessage(context.Background(), conn, int64(i+1), payload)
			}
		}(sender)
	}
	wg.Wait()

	if got := repo.messageCount("u1"); got != perSender {
		t.Fatalf("u1 会话应有 %d 条消息，实际 %d", perSender, got)
	}
	if got := repo.messageCount("u2"); got != perSender {
		t.Fatalf("u2 会话应有 %d 条消息，实际 %d", perSender, got)
	}
}

// 同一会话上的并发发送：互不相同的内容必须全部落库，一条不丢、一条不重
func TestConcurrentSendsSameThread(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, _ := newTestOrchestrator(repo)

	const total = 40
	conns := make([]*UserConn, total)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		conns[i] = newTestConn("u1", ActorEndUser)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := sendPayload("", "text", fmt.Sprintf("并发第 %d 条", i), "")
			orch.HandleSendMessage(context.Background(), conns[i], int64(i+1), payload)
		}(i)
	}
	wg.Wait()

	if got := repo.messageCount("u1"); got != total {
		t.Fatalf("同一会话并发发送 %d 条应全部落库，实际 %d", total, got)
	}
	seen := make(map[int64]bool, total)
	for i := 0; i < total; i++ {
		msg := repo.messageAt("u1", i)
		if seen[msg.Id] {
			t.Fatalf("消息 ID %d 重复", msg.Id)
		}
		seen[msg.Id] = true
	}
	for i, conn := range conns {
		if ack := lastAck(t, drainFrames(t, conn)); ack.Status != AckSuccess {
			t.Fatalf("第 %d 个发送者应收到成功回执: %+v", i, ack)
		}
	}
}

func TestEditMessageOwnershipAndBroadcast(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	owner := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), owner, 1, sendPayload("", "text", "原文", ""))
	msgId := strconv.FormatInt(repo.messageAt("u1", 0).Id, 10)
	drainFrames(t, owner)

	// 非发送者编辑被拒绝
	other := newTestConn("a1", ActorAdmin)
	editReq, _ := json.Marshal(map[string]string{"messageId": msgId, "content": "篡改"})
	orch.HandleEditMessage(context.Background(), other, 2, editReq)
	frames := drainFrames(t, other)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeForbidden {
		t.Fatalf("非发送者编辑应返回无权限，实际 %d", msgErr.Code)
	}

	// 发送者本人编辑成功并广播到双方房间
	orch.HandleEditMessage(context.Background(), owner, 3, mustJSON(map[string]string{"messageId": msgId, "content": "改后的内容"}))
	stored := repo.messageAt("u1", 0)
	if stored.Content != "改后的内容" || !stored.IsEdited {
		t.Fatalf("编辑未生效: %+v", stored)
	}
	evt := broker.byEvent(EventMessageEdited)
	if evt == nil {
		t.Fatal("期望扇出 messageEdited")
	}
	if len(evt.Rooms) != 2 || evt.Rooms[0] != "u1" || evt.Rooms[1] != constants.ADMIN_ROOM {
		t.Fatalf("messageEdited 应同时进用户与客服房间: %v", evt.Rooms)
	}
}

func TestDeleteMessageSoftDeleteAndUnreadRefresh(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	conn := newTestConn("u1", ActorEndUser)

	orch.HandleSendMessage(context.Background(), conn, 1, sendPayload("", "text", "说错话了", ""))
	msgId := strconv.FormatInt(repo.messageAt("u1", 0).Id, 10)

	orch.HandleDeleteMessage(context.Background(), conn, 2, mustJSON(map[string]string{"messageId": msgId}))

	stored := repo.messageAt("u1", 0)
	if !stored.IsDeleted || stored.Content != "" {
		t.Fatalf("软删除未生效: %+v", stored)
	}
	if stored.Id == 0 || stored.SenderId != "u1" {
		t.Fatal("软删除应保留消息 ID 与发送者")
	}
	if evt := broker.byEvent(EventMessageDeleted); evt == nil {
		t.Fatal("期望扇出 messageDeleted")
	}
	// 删除未读消息后，未读数应回到 0
	var count respond.UnreadCountRespond
	_ = json.Unmarshal(broker.byEvent(EventUpdateUnreadCount).Data, &count)
	if count.UnreadCount != 0 {
		t.Fatalf("删除后未读数应为 0，实际 %d", count.UnreadCount)
	}
	// 已删除消息不可再编辑
	orch.HandleEditMessage(context.Background(), conn, 3, mustJSON(map[string]string{"messageId": msgId, "content": "复活"}))
	frames := drainFrames(t, conn)
	var editErr MessageErrorRespond
	errFrames := frames[EventMessageError]
	_ = json.Unmarshal(errFrames[len(errFrames)-1], &editErr)
	if editErr.Code != errorx.CodeNotFound {
		t.Fatalf("编辑已删除消息应返回不存在，实际 %d", editErr.Code)
	}
}

func TestMarkMessagesAsRead(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, broker := newTestOrchestrator(repo)
	userConn := newTestConn("u1", ActorEndUser)
	adminConn := newTestConn("a1", ActorAdmin)

	orch.HandleSendMessage(context.Background(), userConn, 1, sendPayload("", "text", "第一条", ""))
	orch.HandleSendMessage(context.Background(), userConn, 2, sendPayload("", "text", "第二条", ""))

	orch.HandleMarkMessagesAsRead(context.Background(), adminConn, 3, mustJSON(map[string]string{"chatId": "u1"}))

	for i := 0; i < repo.messageCount("u1"); i++ {
		if !repo.messageAt("u1", i).ReadByAdmin {
			t.Fatalf("第 %d 条消息未被置为已读", i)
		}
	}
	readEvt := broker.byEvent(EventMessagesRead)
	if readEvt == nil || len(readEvt.Rooms) != 1 || readEvt.Rooms[0] != "u1" {
		t.Fatalf("messagesRead 应进用户房间: %+v", readEvt)
	}
	var count respond.UnreadCountRespond
	_ = json.Unmarshal(broker.byEvent(EventUpdateUnreadCount).Data, &count)
	if count.UserId != "u1" || count.UnreadCount != 0 {
		t.Fatalf("已读后未读数应归零: %+v", count)
	}
	if ack := lastAck(t, drainFrames(t, adminConn)); ack.Status != AckSuccess {
		t.Fatal("期望成功回执")
	}
}

func TestSyncUnreadCounts(t *testing.T) {
	repo := newMemoryThreadRepo()
	orch, _ := newTestOrchestrator(repo)
	userConn := newTestConn("u1", ActorEndUser)
	orch.HandleSendMessage(context.Background(), userConn, 1, sendPayload("", "text", "在吗", ""))

	adminConn := newTestConn("a1", ActorAdmin)
	orch.HandleSyncUnreadCounts(context.Background(), adminConn, 2)

	frames := drainFrames(t, adminConn)
	if len(frames[EventInitialUnreadCounts]) != 1 {
		t.Fatal("期望收到 initialUnreadCounts")
	}
	var counts map[string]int64
	_ = json.Unmarshal(frames[EventInitialUnreadCounts][0], &counts)
	if counts["u1"] != 1 {
		t.Fatalf("全量未读数不符: %v", counts)
	}
}

func mustJSON(v any) json.RawMessage {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
