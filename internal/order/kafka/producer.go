package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer streams order lifecycle events. One writer per topic, matching
// the topic layout in config.
type Producer struct {
	writers map[string]*kafka.Writer
	topics  config.TopicConfig
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	topics := []string{
		cfg.Topics.OrderCreated,
		cfg.Topics.OrderConfirmed,
		cfg.Topics.OrderCancelled,
		cfg.Topics.OrderRefunded,
	}
	writers := make(map[string]*kafka.Writer, len(topics))
	for _, topic := range topics {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}
	return &Producer{writers: writers, topics: cfg.Topics}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer configured for topic %s", topic)
	}

	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishOrderCreated streams the reservation event
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.topics.OrderCreated, order.OrderID, order)
}

// PublishOrderConfirmed streams the payment-confirmed event
func (p *Producer) PublishOrderConfirmed(order models.Order) error {
	return p.publish(p.topics.OrderConfirmed, order.OrderID, order)
}

// PublishOrderCancelled streams cancellations and expirations
func (p *Producer) PublishOrderCancelled(order models.Order) error {
	return p.publish(p.topics.OrderCancelled, order.OrderID, order)
}

// RefundEvent carries the approved amount for the external payment
// collaborator, which releases the funds.
type RefundEvent struct {
	OrderID           string `json:"order_id"`
	EventID           string `json:"event_id"`
	BuyerID           string `json:"buyer_id"`
	TotalPaidCents    int64  `json:"total_paid_cents"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
}

// PublishOrderRefunded streams the approved refund with its amount
func (p *Producer) PublishOrderRefunded(order models.Order) error {
	event := RefundEvent{
		OrderID:           order.OrderID,
		EventID:           order.EventID,
		BuyerID:           order.BuyerID,
		TotalPaidCents:    order.TotalCents,
		RefundAmountCents: order.RefundAmountCents,
	}
	return p.publish(p.topics.OrderRefunded, order.OrderID, event)
}

func (p *Producer) Close() error {
	var firstErr error
	for _, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
