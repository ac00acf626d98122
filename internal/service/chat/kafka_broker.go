// kafka_broker.go
// 核心职责：多实例部署下经 kafka 的事件扇出
// 校验、去重、落库、回执都在收到上行帧的实例本地完成，
// 只有编排器产出的下行事件信封才会经过 kafka，由每个实例投递到自己的本地房间
package chat

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type KafkaBroker struct {
	client    *KafkaClient
	rooms     *RoomRegistry
	quit      chan struct{}
	closeOnce sync.Once
}

func NewKafkaBroker(client *KafkaClient, rooms *RoomRegistry) *KafkaBroker {
	return &KafkaBroker{
		client: client,
		rooms:  rooms,
		quit:   make(chan struct{}),
	}
}

// Publish 将事件信封发布到 kafka
// 以首个房间作为分区 key，保证同一房间的事件在分区内保持发布顺序
func (b *KafkaBroker) Publish(ctx context.Context, evt *OutboundEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	var key []byte
	if len(evt.Rooms) > 0 {
		key = []byte(evt.Rooms[0])
	}
	return b.client.WriteMessage(ctx, key, value)
}

// Start 消费循环，阻塞直到 Close
func (b *KafkaBroker) Start() {
	for {
		msg, err := b.client.Consumer.ReadMessage(context.Background())
		if err != nil {
			select {
			case <-b.quit:
				return
			default:
			}
			zap.L().Error("kafka 消费失败", zap.Error(err))
			continue
		}
		var evt OutboundEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			zap.L().Error("kafka 事件信封解析失败", zap.Error(err))
			continue
		}
		b.deliver(&evt)
	}
}

func (b *KafkaBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
}

func (b *KafkaBroker) deliver(evt *OutboundEvent) {
	payload, err := json.Marshal(PushFrame{Event: evt.Event, Data: evt.Data})
	if err != nil {
		zap.L().Error("事件信封编码失败", zap.String("event", evt.Event), zap.Error(err))
		return
	}
	for _, roomId := range evt.Rooms {
		b.rooms.Broadcast(roomId, payload)
	}
}
