package chat

import (
	"testing"

	"consult_chat_server/pkg/constants"
)

func TestActorCapabilities(t *testing.T) {
	cases := []struct {
		actor Actor
		event string
		want  bool
	}{
		{ActorEndUser, EventSendMessage, true},
		{ActorEndUser, EventEditMessage, true},
		{ActorEndUser, EventDeleteMessage, true},
		{ActorEndUser, EventMarkMessagesAsRead, false},
		{ActorEndUser, EventSyncUnreadCounts, false},
		{ActorAdmin, EventSendMessage, true},
		{ActorAdmin, EventMarkMessagesAsRead, true},
		{ActorAdmin, EventSyncUnreadCounts, true},
		{ActorAdmin, "unknown", false},
	}
	for _, tc := range cases {
		if got := tc.actor.Can(tc.event); got != tc.want {
			t.Errorf("actor %v 事件 %s: 期望 %v 实际 %v", tc.actor, tc.event, tc.want, got)
		}
	}
}

func TestActorFor(t *testing.T) {
	if ActorFor("admin") != ActorAdmin {
		t.Fatal("admin 角色应得到客服 Actor")
	}
	if ActorFor("user") != ActorEndUser || ActorFor("") != ActorEndUser || ActorFor("root") != ActorEndUser {
		t.Fatal("未知角色应一律按普通用户处理")
	}
}

func TestRoomsFor(t *testing.T) {
	rooms := RoomsFor("u1", ActorEndUser)
	if len(rooms) != 1 || rooms[0] != "u1" {
		t.Fatalf("普通用户只应加入个人房间: %v", rooms)
	}
	rooms = RoomsFor("a1", ActorAdmin)
	if len(rooms) != 2 || rooms[0] != "a1" || rooms[1] != constants.ADMIN_ROOM {
		t.Fatalf("客服应加入个人房间与客服房间: %v", rooms)
	}
}
