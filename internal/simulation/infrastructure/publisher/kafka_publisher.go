// Package publisher 领域事件发布的基础设施实现
package publisher

import (
	"context"
	"fmt"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/pkg/mq"
)

// KafkaEventPublisher 通过 Kafka 发布模拟完成事件
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布器
func NewKafkaEventPublisher(cfg mq.KafkaConfig, topic string) (*KafkaEventPublisher, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic must not be empty")
	}
	producer, err := mq.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaEventPublisher{producer: producer, topic: topic}, nil
}

// PublishSimulationCompleted 发布模拟完成事件，以引擎名称作为分区键
func (p *KafkaEventPublisher) PublishSimulationCompleted(ctx context.Context, event *domain.SimulationCompletedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.Strategy, event)
}

// PublishReportGenerated 发布报告生成事件，以报告路径作为分区键
func (p *KafkaEventPublisher) PublishReportGenerated(ctx context.Context, event *domain.ReportGeneratedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.ReportPath, event)
}

// Close 关闭底层生产者
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
