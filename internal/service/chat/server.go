// server.go
// 核心职责：实时服务的装配
// 按配置选择 channel/kafka 扇出模式，把房间注册表、编排器、网关组装成一个整体
package chat

import (
	"consult_chat_server/internal/dao/mongo"

	"go.uber.org/zap"
)

const (
	ModeChannel = "channel"
	ModeKafka   = "kafka"
)

// ChatServerConfig 实时服务装配参数
type ChatServerConfig struct {
	Mode       string
	ThreadRepo mongo.ThreadRepository
	Store      ChatStore
	Unread     UnreadCounter
}

// ChatServer 实时服务聚合根
type ChatServer struct {
	Rooms       *RoomRegistry
	Broker      EventBroker
	Gateway     *ChatGateway
	kafkaClient *KafkaClient
	mode        string
}

func NewChatServer(cfg ChatServerConfig) *ChatServer {
	rooms := NewRoomRegistry()
	mode := cfg.Mode
	var broker EventBroker
	var kafkaClient *KafkaClient
	if mode == ModeKafka {
		kafkaClient = NewKafkaClient()
		broker = NewKafkaBroker(kafkaClient, rooms)
	} else {
		mode = ModeChannel
		broker = NewChannelBroker(rooms)
	}
	orchestrator := NewOrchestrator(cfg.ThreadRepo, cfg.Store, cfg.Unread, broker)
	gateway := NewChatGateway(rooms, orchestrator, cfg.Unread)
	return &ChatServer{
		Rooms:       rooms,
		Broker:      broker,
		Gateway:     gateway,
		kafkaClient: kafkaClient,
		mode:        mode,
	}
}

// Start 启动扇出循环，阻塞直到 Close，应在独立协程中调用
func (s *ChatServer) Start() {
	if s.kafkaClient != nil {
		s.kafkaClient.KafkaInit()
	}
	zap.L().Info("实时聊天服务启动", zap.String("mode", s.mode))
	s.Broker.Start()
}

// Close 停止扇出并释放外部资源
func (s *ChatServer) Close() {
	s.Broker.Close()
	if s.kafkaClient != nil {
		s.kafkaClient.KafkaClose()
	}
	zap.L().Info("实时聊天服务停止")
}
