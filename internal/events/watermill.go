package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/achievers-lc/learning-center/internal/config"
)

// WatermillPublisher sends events to Kafka, or to an in-process channel when no brokers are set
type WatermillPublisher struct {
	publisher message.Publisher
	channel   *gochannel.GoChannel
	topic     string
	logger    *slog.Logger
}

func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*WatermillPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)

	p := &WatermillPublisher{topic: cfg.Topic, logger: logger}
	if p.topic == "" {
		p.topic = "learning-center.events"
	}

	if len(cfg.Brokers) == 0 {
		p.channel = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		p.publisher = p.channel
		logger.Info("Event feed using in-process channel", "topic", p.topic)
		return p, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	p.publisher = publisher
	logger.Info("Event feed using kafka", "brokers", cfg.Brokers, "topic", p.topic)
	return p, nil
}

// Subscribe reads the in-process feed. It fails when events go to Kafka.
func (p *WatermillPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	if p.channel == nil {
		return nil, fmt.Errorf("subscribe is only available on the in-process feed")
	}
	return p.channel.Subscribe(ctx, p.topic)
}

func (p *WatermillPublisher) Publish(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode event", "type", event.Type, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(metadataEventType, event.Type)
	msg.Metadata.Set(metadataOccurredAt, strconv.FormatInt(event.OccurredAt.Unix(), 10))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("Failed to publish event", "type", event.Type, "message_uuid", msg.UUID, "error", err)
		return
	}
	p.logger.Debug("Event published", "type", event.Type, "message_uuid", msg.UUID)
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
