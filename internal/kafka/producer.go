package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Foullane-Mohamed/ProSets/internal/config"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

// Producer publishes order lifecycle events. Publishing is best effort: the
// purchase pipeline never fails a request because Kafka is down.
type Producer struct {
	writer *kafka.Writer
	topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer, topics: topics}
}

func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) PublishOrderCreated(order models.Order, assetIDs []string) error {
	return p.publishOrderEvent(p.topics.OrderCreated, "order.created", order, assetIDs)
}

func (p *Producer) PublishOrderPaid(order models.Order, assetIDs []string) error {
	return p.publishOrderEvent(p.topics.OrderPaid, "order.paid", order, assetIDs)
}

func (p *Producer) publishOrderEvent(topic, eventType string, order models.Order, assetIDs []string) error {
	event := models.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		AssetIDs:    assetIDs,
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Publish(topic, order.ID, value)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
