package chat

import (
	"encoding/json"
	"testing"
	"time"

	"consult_chat_server/internal/service/message"
	"consult_chat_server/internal/service/unread"
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/errorx"
)

func newTestGateway(repo *memoryThreadRepo) (*ChatGateway, *ChannelBroker, *RoomRegistry) {
	rooms := NewRoomRegistry()
	broker := NewChannelBroker(rooms)
	store := message.NewChatService(repo, nil)
	counter := unread.NewCounter(repo, nil)
	orch := NewOrchestrator(repo, store, counter, broker)
	return NewChatGateway(rooms, orch, counter), broker, rooms
}

// waitFrame 在超时时间内等待连接收到指定事件的下行帧
func waitFrame(t *testing.T, conn *UserConn, event string) json.RawMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
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
			if frame.Event == event {
				return frame.Data
			}
		case <-deadline:
			t.Fatalf("等待 %s 事件超时", event)
		}
	}
}

func TestDispatchRejectsUnauthorizedEvent(t *testing.T) {
	gateway, _, _ := newTestGateway(newMemoryThreadRepo())
	conn := newTestConn("u1", ActorEndUser)

	gateway.Dispatch(conn, &EventFrame{
		Event: EventMarkMessagesAsRead,
		AckId: 1,
		Data:  mustJSON(map[string]string{"chatId": "u1"}),
	})

	frames := drainFrames(t, conn)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeForbidden {
		t.Fatalf("普通用户标记已读应被拒绝，实际 %d", msgErr.Code)
	}
	if ack := lastAck(t, frames); ack.Status != AckError {
		t.Fatal("期望错误回执")
	}
}

func TestDispatchRejectsUnknownEvent(t *testing.T) {
	gateway, _, _ := newTestGateway(newMemoryThreadRepo())
	conn := newTestConn("a1", ActorAdmin)

	gateway.Dispatch(conn, &EventFrame{Event: "selfDestruct", AckId: 1})

	frames := drainFrames(t, conn)
	var msgErr MessageErrorRespond
	_ = json.Unmarshal(frames[EventMessageError][0], &msgErr)
	if msgErr.Code != errorx.CodeInvalidParam {
		t.Fatalf("未知事件应返回参数错误，实际 %d", msgErr.Code)
	}
}

// 端到端：用户经网关发消息，两个在线客服连接都收到 newMessage 与未读数推送
func TestChannelFanOutToAdminRoom(t *testing.T) {
	repo := newMemoryThreadRepo()
	gateway, broker, _ := newTestGateway(repo)
	go broker.Start()
	defer broker.Close()

	admin1 := newTestConn("a1", ActorAdmin)
	admin2 := newTestConn("a2", ActorAdmin)
	userConn := newTestConn("u1", ActorEndUser)
	gateway.Register(admin1)
	gateway.Register(admin2)
	gateway.Register(userConn)
	// 注册时客服会收到一次全量未读数
	waitFrame(t, admin1, EventInitialUnreadCounts)
	waitFrame(t, admin2, EventInitialUnreadCounts)

	gateway.Dispatch(userConn, &EventFrame{
		Event: EventSendMessage,
		AckId: 1,
		Data:  sendPayload("", "text", "有人在吗", ""),
	})

	for _, adminConn := range []*UserConn{admin1, admin2} {
		waitFrame(t, adminConn, EventNewMessage)
		waitFrame(t, adminConn, EventUpdateUnreadCount)
	}
	// 发送方不在客服房间，只收到投递确认
	waitFrame(t, userConn, EventMessageDelivered)
}

// 端到端：客服回复只进目标用户房间，其他用户收不到
func TestChannelFanOutToUserRoom(t *testing.T) {
	repo := newMemoryThreadRepo()
	gateway, broker, rooms := newTestGateway(repo)
	go broker.Start()
	defer broker.Close()

	adminConn := newTestConn("a1", ActorAdmin)
	target := newTestConn("u1", ActorEndUser)
	bystander := newTestConn("u2", ActorEndUser)
	gateway.Register(adminConn)
	gateway.Register(target)
	gateway.Register(bystander)
	waitFrame(t, adminConn, EventInitialUnreadCounts)

	gateway.Dispatch(adminConn, &EventFrame{
		Event: EventSendMessage,
		AckId: 1,
		Data:  sendPayload("u1", "text", "您好", ""),
	})

	waitFrame(t, target, EventNewMessage)
	if got := len(drainFrames(t, bystander)); got != 0 {
		t.Fatalf("无关用户不应收到任何帧，实际 %d 种事件", got)
	}
	if rooms.MemberCount(constants.ADMIN_ROOM) != 1 {
		t.Fatal("客服房间成员数不符")
	}
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	gateway, _, rooms := newTestGateway(newMemoryThreadRepo())
	adminConn := newTestConn("a1", ActorAdmin)
	gateway.Register(adminConn)
	if rooms.MemberCount(constants.ADMIN_ROOM) != 1 || rooms.MemberCount("a1") != 1 {
		t.Fatal("注册后应同时出现在个人房间与客服房间")
	}

	gateway.Unregister(adminConn)
	if rooms.MemberCount(constants.ADMIN_ROOM) != 0 || rooms.MemberCount("a1") != 0 {
		t.Fatal("反注册后应从所有房间移除")
	}
	// 反注册后收到的广播被安全丢弃
	rooms.Broadcast(constants.ADMIN_ROOM, []byte("{}"))
}
