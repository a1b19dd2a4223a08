package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes rendition events.
type Producer interface {
	PublishRendition(ctx context.Context, event entity.RenditionEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first reachable broker and makes sure the topic
// exists. When no broker answers it returns a producer that only logs.
func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logrus.WithField("brokers", brokers).Info("Kafka producer configured")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var conn *kafka.Conn
	var err error
	for _, broker := range brokers {
		conn, err = kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			break
		}
	}
	if conn == nil {
		logrus.Warnf("Kafka connection failed: %v", err)
		logrus.Warn("Using mock producer instead")
		writer.Close()
		return &mockProducer{}
	}
	defer conn.Close()

	// Создаем топик если не существует
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.Infof("Could not create topic %s (might already exist): %v", topic, err)
	}

	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) PublishRendition(ctx context.Context, event entity.RenditionEvent) error {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// события одного объекта попадают в одну партицию
	msg := kafka.Message{
		Key:   []byte(event.Tenant + "/" + strconv.FormatInt(event.ObjectID, 10)),
		Value: messageBytes,
		Time:  event.GeneratedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.Errorf("Failed to write message to Kafka: %v", err)
		return err
	}

	logrus.Debugf("Rendition event sent to topic: %s", p.topic)
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Mock producer для работы без Kafka
type mockProducer struct{}

func (m *mockProducer) PublishRendition(ctx context.Context, event entity.RenditionEvent) error {
	logrus.WithFields(logrus.Fields{
		"object_id": event.ObjectID,
		"commands":  event.Commands,
		"extension": event.Extension,
	}).Debug("MOCK: rendition event")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

// NewMockProducer returns the logging producer used when Kafka is disabled.
func NewMockProducer() Producer {
	return &mockProducer{}
}
