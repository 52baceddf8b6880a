package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type BusConfig struct {
	Topic        string
	KafkaBrokers []string
}

// Bus delivers events to in-process subscribers over a watermill go channel
// and, when brokers are configured, forwards them to Kafka as well.
type Bus struct {
	topic  string
	local  *gochannel.GoChannel
	remote message.Publisher
	logger *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ EventPublisher = (*Bus)(nil)

func NewBus(cfg BusConfig, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	wmLogger := watermill.NewSlogLogger(logger)

	b := &Bus{
		topic:  topic,
		local:  gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger),
		logger: logger,
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			_ = b.local.Close()
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		b.remote = pub
	}
	return b, nil
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", event.Type)
	msg.SetContext(ctx)

	if err := b.local.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish %s locally: %w", event.Type, err)
	}
	if b.remote != nil {
		if err := b.remote.Publish(b.topic, msg.Copy()); err != nil {
			b.logger.ErrorContext(ctx, "Failed to forward event to kafka",
				"event_type", event.Type,
				"event_id", event.ID,
				"error", err)
			return fmt.Errorf("publish %s to kafka: %w", event.Type, err)
		}
	}

	b.logger.DebugContext(ctx, "Event published",
		"event_type", event.Type,
		"event_id", event.ID)
	return nil
}

// Subscribe starts a goroutine feeding every event to handler until ctx is
// done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, handler HandlerFunc) error {
	messages, err := b.local.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.dispatch(msg, handler)
		}
	}()
	return nil
}

func (b *Bus) dispatch(msg *message.Message, handler HandlerFunc) {
	defer msg.Ack()

	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		b.logger.Error("Dropping malformed event", "message_id", msg.UUID, "error", err)
		return
	}
	if err := handler(msg.Context(), event); err != nil {
		b.logger.Error("Event handler failed",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

// Close stops delivery and waits for subscriber goroutines to return.
func (b *Bus) Close() error {
	var errs []error
	b.closeOnce.Do(func() {
		if err := b.local.Close(); err != nil {
			errs = append(errs, err)
		}
		if b.remote != nil {
			if err := b.remote.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		b.wg.Wait()
	})
	return errors.Join(errs...)
}
