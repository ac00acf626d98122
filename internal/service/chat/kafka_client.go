// kafka_client.go
// 核心职责：kafka 模式下的生产者与消费者封装
package chat

import (
	"context"
	"time"

	"consult_chat_server/internal/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaClient struct {
	Producer *kafka.Writer
	Consumer *kafka.Reader
}

func NewKafkaClient() *KafkaClient {
	return &KafkaClient{}
}

// KafkaInit 按配置初始化读写端
// 消费组 ID 取每实例唯一的随机值：房间扇出要求每个实例都消费到全量事件，
// 再由各实例把事件投递给自己持有的本地连接
func (k *KafkaClient) KafkaInit() {
	conf := config.GetConfig()
	kafkaConf := conf.KafkaConfig
	timeout := time.Duration(kafkaConf.Timeout) * time.Second

	k.Producer = &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConf.HostPort),
		Topic:                  kafkaConf.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: true,
	}
	k.Consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaConf.HostPort},
		Topic:          kafkaConf.ChatTopic,
		GroupID:        "consult_chat_" + uuid.NewString(),
		StartOffset:    kafka.LastOffset,
		CommitInterval: timeout,
	})
	zap.L().Info("kafka 初始化完成",
		zap.String("host_port", kafkaConf.HostPort),
		zap.String("topic", kafkaConf.ChatTopic))
}

// WriteMessage 发布一条消息，key 用于分区路由
func (k *KafkaClient) WriteMessage(ctx context.Context, key, value []byte) error {
	return k.Producer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (k *KafkaClient) KafkaClose() {
	if k.Producer != nil {
		if err := k.Producer.Close(); err != nil {
			zap.L().Error("kafka 生产者关闭失败", zap.Error(err))
		}
	}
	if k.Consumer != nil {
		if err := k.Consumer.Close(); err != nil {
			zap.L().Error("kafka 消费者关闭失败", zap.Error(err))
		}
	}
}
