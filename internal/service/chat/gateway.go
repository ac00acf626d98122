// gateway.go
// 核心职责：连接的注册/反注册与上行事件分发
// 分发前先查角色能力表，越权事件直接拒绝，不进入编排器
package chat

import (
	"context"
	"encoding/json"

	"consult_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

type ChatGateway struct {
	rooms        *RoomRegistry
	orchestrator *Orchestrator
	unread       UnreadCounter
}

func NewChatGateway(rooms *RoomRegistry, orchestrator *Orchestrator, unread UnreadCounter) *ChatGateway {
	return &ChatGateway{
		rooms:        rooms,
		orchestrator: orchestrator,
		unread:       unread,
	}
}

// Register 将新连接加入其会话所属的全部房间
// 客服连接注册后立即推送一次全量未读数，省去客户端再发同步请求
func (g *ChatGateway) Register(conn *UserConn) {
	for _, roomId := range conn.Session.Rooms {
		g.rooms.Join(roomId, conn)
	}
	zap.L().Info("websocket 连接建立",
		zap.String("user_id", conn.Session.UserId),
		zap.String("conn_id", conn.Session.ConnId),
		zap.String("role", conn.Session.Role))
	if conn.Session.Actor.IsAdmin() {
		if counts, err := g.unread.GetAll(context.Background()); err == nil {
			conn.Push(EventInitialUnreadCounts, counts)
		} else {
			zap.L().Warn("初始未读数同步失败", zap.Error(err))
		}
	}
}

// Unregister 将连接从所有房间移除并关闭
func (g *ChatGateway) Unregister(conn *UserConn) {
	g.rooms.Leave(conn)
	conn.close()
	zap.L().Info("websocket 连接关闭",
		zap.String("user_id", conn.Session.UserId),
		zap.String("conn_id", conn.Session.ConnId))
}

// Dispatch 按事件名路由到编排器
// 任何 handler panic 都被兜住，单个连接的异常不能拖垮整个服务
func (g *ChatGateway) Dispatch(conn *UserConn, frame *EventFrame) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("事件处理 panic",
				zap.String("event", frame.Event),
				zap.String("user_id", conn.Session.UserId),
				zap.Any("recover", r))
			conn.Ack(frame.AckId, AckError, nil, "服务繁忙")
		}
	}()

	if !conn.Session.Actor.Can(frame.Event) {
		reason := "无权执行该操作"
		code := errorx.CodeForbidden
		if _, known := actorOps[ActorAdmin][frame.Event]; !known {
			reason = "未知的事件类型"
			code = errorx.CodeInvalidParam
		}
		conn.Push(EventMessageError, MessageErrorRespond{Code: code, Error: reason})
		conn.Ack(frame.AckId, AckError, nil, reason)
		return
	}

	ctx := context.Background()
	data := frame.Data
	if data == nil {
		data = json.RawMessage("{}")
	}
	switch frame.Event {
	case EventSendMessage:
		g.orchestrator.HandleSendMessage(ctx, conn, frame.AckId, data)
	case EventEditMessage:
		g.orchestrator.HandleEditMessage(ctx, conn, frame.AckId, data)
	case EventDeleteMessage:
		g.orchestrator.HandleDeleteMessage(ctx, conn, frame.AckId, data)
	case EventMarkMessagesAsRead:
		g.orchestrator.HandleMarkMessagesAsRead(ctx, conn, frame.AckId, data)
	case EventSyncUnreadCounts:
		g.orchestrator.HandleSyncUnreadCounts(ctx, conn, frame.AckId)
	}
}
