// conn_manager.go
// 核心职责：WebSocket 连接的握手认证与读写泵
// 握手阶段先校验 Token，不通过则拒绝升级，连接不会加入任何房间
package chat

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/errorx"
	myjwt "consult_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserConn 一条已认证的 WebSocket 连接
// 所有下行数据都经过 SendBack 通道，由写泵串行写出
type UserConn struct {
	Conn      *websocket.Conn
	Session   *Session
	SendBack  chan []byte
	closeOnce sync.Once
}

// NewClientInit 处理 WebSocket 握手
// Token 从查询参数 token 或 Authorization 头取，校验失败直接返回 401，不升级连接
func NewClientInit(c *gin.Context, gateway *ChatGateway) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": errorx.CodeUnauthorized, "message": "缺少认证 Token"})
		return
	}
	claims, err := myjwt.ParseToken(token)
	if err != nil || claims.Subject != "access_token" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": errorx.CodeUnauthorized, "message": "无效的认证 Token"})
		return
	}

	actor := ActorFor(claims.Role)
	sess := &Session{
		ConnId: uuid.NewString(),
		UserId: claims.UserID,
		Role:   claims.Role,
		Actor:  actor,
		Rooms:  RoomsFor(claims.UserID, actor),
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket 连接升级失败", zap.String("user_id", sess.UserId), zap.Error(err))
		return
	}

	client := &UserConn{
		Conn:     conn,
		Session:  sess,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	gateway.Register(client)
	go client.readPump(gateway)
	go client.writePump()
}

// readPump 持续读取上行帧并交给网关分发，连接断开时负责反注册
func (c *UserConn) readPump(gateway *ChatGateway) {
	defer gateway.Unregister(c)
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket 连接异常断开", zap.String("user_id", c.Session.UserId), zap.Error(err))
			}
			return
		}
		var frame EventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.Push(EventMessageError, MessageErrorRespond{
				Code:  errorx.CodeInvalidParam,
				Error: "无法解析的事件帧",
			})
			continue
		}
		gateway.Dispatch(c, &frame)
	}
}

// writePump 串行写出下行帧，SendBack 关闭即退出
func (c *UserConn) writePump() {
	for payload := range c.SendBack {
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			zap.L().Warn("websocket 写出失败", zap.String("user_id", c.Session.UserId), zap.Error(err))
			return
		}
	}
}

// enqueue 将编码好的帧放入发送队列，队列满则丢弃并记日志，不阻塞广播方
func (c *UserConn) enqueue(payload []byte) {
	defer func() {
		// SendBack 可能在连接关闭后才收到广播
		if r := recover(); r != nil {
			zap.L().Debug("向已关闭的连接投递被忽略", zap.String("user_id", c.Session.UserId))
		}
	}()
	select {
	case c.SendBack <- payload:
	default:
		zap.L().Warn("连接发送队列已满，丢弃一帧",
			zap.String("user_id", c.Session.UserId),
			zap.String("conn_id", c.Session.ConnId))
	}
}

// Push 向该连接推送一个服务端事件
func (c *UserConn) Push(event string, data any) {
	payload, err := json.Marshal(PushFrame{Event: event, Data: data})
	if err != nil {
		zap.L().Error("下行帧编码失败", zap.String("event", event), zap.Error(err))
		return
	}
	c.enqueue(payload)
}

// Ack 回执客户端的上行帧，客户端未携带 ackId 时静默跳过
func (c *UserConn) Ack(ackId int64, status string, message any, errMsg string) {
	if ackId == 0 {
		return
	}
	c.Push(EventAck, AckRespond{
		AckId:   ackId,
		Status:  status,
		Message: message,
		Error:   errMsg,
	})
}

func (c *UserConn) close() {
	c.closeOnce.Do(func() {
		close(c.SendBack)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}
