// actor.go
// 核心职责：连接角色与操作能力表
// 能力在握手（解析 Token）时确定一次，之后所有事件分发只查表
package chat

import (
	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/enum/role_enum"
)

// Actor 连接在本系统中的角色
type Actor int8

const (
	ActorEndUser Actor = iota
	ActorAdmin
)

// ActorFor 根据 Token 中的角色声明得到 Actor，未知角色一律按普通用户处理
func ActorFor(role string) Actor {
	if role == role_enum.Admin {
		return ActorAdmin
	}
	return ActorEndUser
}

// 各角色允许发起的上行事件
var actorOps = map[Actor]map[string]bool{
	ActorEndUser: {
		EventSendMessage:   true,
		EventEditMessage:   true,
		EventDeleteMessage: true,
	},
	ActorAdmin: {
		EventSendMessage:        true,
		EventEditMessage:        true,
		EventDeleteMessage:      true,
		EventMarkMessagesAsRead: true,
		EventSyncUnreadCounts:   true,
	},
}

// Can 判断该角色能否发起指定事件
func (a Actor) Can(event string) bool {
	return actorOps[a][event]
}

func (a Actor) IsAdmin() bool {
	return a == ActorAdmin
}

// RoomsFor 计算连接应加入的房间集合
// 任何连接都加入以自己 userId 命名的房间，客服额外加入共享的客服房间
func RoomsFor(userId string, actor Actor) []string {
	rooms := []string{userId}
	if actor.IsAdmin() {
		rooms = append(rooms, constants.ADMIN_ROOM)
	}
	return rooms
}

// Session 一条 WebSocket 连接的会话上下文，握手成功后不再变化
type Session struct {
	ConnId string
	UserId string
	Role   string
	Actor  Actor
	Rooms  []string
}
