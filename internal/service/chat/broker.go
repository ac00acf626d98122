// broker.go
// 核心职责：事件扇出抽象
// 编排器只负责发布带房间列表的事件信封，投递到本地连接由具体 broker 实现
package chat

import (
	"context"
	"encoding/json"
)

// OutboundEvent 待扇出的服务端事件信封
// Data 在发布前已编码完毕，跨实例传输时整个信封再整体编码一次
type OutboundEvent struct {
	Rooms []string        `json:"rooms"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventBroker 事件扇出通道
// channel 模式走进程内通道，kafka 模式经消息队列让所有实例各自投递本地房间
type EventBroker interface {
	Publish(ctx context.Context, evt *OutboundEvent) error
	Start()
	Close()
}
