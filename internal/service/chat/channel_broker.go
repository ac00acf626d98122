// channel_broker.go
// 核心职责：单实例部署下的进程内事件扇出
package chat

import (
	"context"
	"encoding/json"
	"sync"

	"consult_chat_server/pkg/constants"
	"consult_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// ChannelBroker 通过带缓冲通道把事件送到投递协程，再广播到本地房间
// transmit 永不 close，停机统一走 quit，避免停机期间在途的 Publish 写入已关闭通道
type ChannelBroker struct {
	transmit  chan *OutboundEvent
	rooms     *RoomRegistry
	quit      chan struct{}
	closeOnce sync.Once
}

func NewChannelBroker(rooms *RoomRegistry) *ChannelBroker {
	return &ChannelBroker{
		transmit: make(chan *OutboundEvent, constants.CHANNEL_SIZE),
		rooms:    rooms,
		quit:     make(chan struct{}),
	}
}

// Publish 将事件放入投递通道，通道满时阻塞等待而不是丢事件
// broker 已关闭时返回错误而不是 panic
func (b *ChannelBroker) Publish(ctx context.Context, evt *OutboundEvent) error {
	select {
	case <-b.quit:
		return errorx.New(errorx.CodeServerBusy, "事件通道已关闭")
	default:
	}
	select {
	case b.transmit <- evt:
		return nil
	case <-b.quit:
		return errorx.New(errorx.CodeServerBusy, "事件通道已关闭")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start 投递循环，阻塞直到 Close；退出前把通道里剩余的事件投递完
func (b *ChannelBroker) Start() {
	for {
		select {
		case evt := <-b.transmit:
			b.deliver(evt)
		case <-b.quit:
			for {
				select {
				case evt := <-b.transmit:
					b.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (b *ChannelBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
}

func (b *ChannelBroker) deliver(evt *OutboundEvent) {
	payload, err := json.Marshal(PushFrame{Event: evt.Event, Data: evt.Data})
	if err != nil {
		zap.L().Error("事件信封编码失败", zap.String("event", evt.Event), zap.Error(err))
		return
	}
	for _, roomId := range evt.Rooms {
		b.rooms.Broadcast(roomId, payload)
	}
}
