package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// WarmHandler renders one requested rendition.
type WarmHandler func(ctx context.Context, task entity.WarmTask) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Warmer consumes WarmTask messages so renditions are in the cache before the
// first request for them arrives.
type Warmer struct {
	reader  messageReader
	handler WarmHandler
	// backoff is the pause after a failed read
	backoff time.Duration
}

const defaultReadBackoff = time.Second

func NewWarmer(brokers []string, topic, groupID string, handler WarmHandler) *Warmer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &Warmer{reader: reader, handler: handler, backoff: defaultReadBackoff}
}

// Run reads until ctx is cancelled. Bad messages and failed renders are
// logged and skipped; the next request for the rendition retries it.
func (w *Warmer) Run(ctx context.Context) error {
	defer w.reader.Close()

	logrus.Info("Rendition warmer started")

	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logrus.Info("Rendition warmer stopped")
				return nil
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)

			select {
			case <-ctx.Done():
				logrus.Info("Rendition warmer stopped")
				return nil
			case <-time.After(w.backoff):
			}
			continue
		}

		w.handle(ctx, msg)
	}
}

func (w *Warmer) handle(ctx context.Context, msg kafka.Message) {
	var task entity.WarmTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		logrus.Errorf("Failed to parse warm task at offset %d: %v", msg.Offset, err)
		return
	}

	entry := logrus.WithFields(logrus.Fields{
		"object_id": task.ObjectID,
		"commands":  task.Commands,
		"extension": task.Extension,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	if err := w.handler(ctx, task); err != nil {
		if entity.IsClientError(err) {
			entry.WithError(err).Warn("Warm task rejected")
		} else {
			entry.WithError(err).Error("Warm task failed")
		}
		return
	}
	entry.Info("Rendition warmed")
}
