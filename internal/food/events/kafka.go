package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces events to a single topic, keyed by food id so all
// events for one Food land on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

const (
	// DefaultDeliveryTimeout fails a produce that is still undelivered after
	// this long, including time spent waiting for an unreachable broker.
	DefaultDeliveryTimeout = 5 * time.Second
	// DefaultRequestTimeout bounds a single produce request to a broker.
	DefaultRequestTimeout = 3 * time.Second
)

type KafkaOption func(*kafkaOptions)

type kafkaOptions struct {
	logger          *slog.Logger
	deliveryTimeout time.Duration
	clientOps       []kgo.Opt
}

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(o *kafkaOptions) {
		o.logger = logger
	}
}

// WithDeliveryTimeout overrides DefaultDeliveryTimeout. Non-positive values
// keep the default.
func WithDeliveryTimeout(d time.Duration) KafkaOption {
	return func(o *kafkaOptions) {
		if d > 0 {
			o.deliveryTimeout = d
		}
	}
}

// WithClientOptions appends raw franz-go client options. They are applied
// after the defaults, so they can override the delivery timeouts.
func WithClientOptions(opts ...kgo.Opt) KafkaOption {
	return func(o *kafkaOptions) {
		o.clientOps = append(o.clientOps, opts...)
	}
}

// NewKafkaPublisher connects a producer to brokers. The connection is lazy;
// call Ping or EnsureTopic to surface broker errors at startup.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	o := kafkaOptions{logger: slog.New(slog.DiscardHandler), deliveryTimeout: DefaultDeliveryTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
		kgo.RecordDeliveryTimeout(o.deliveryTimeout),
		kgo.ProduceRequestTimeout(DefaultRequestTimeout),
	}, o.clientOps...)

	client, err := kgo.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: o.logger}, nil
}

// Ping checks that at least one broker answers.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal food event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.FoodID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce food event: %w", err)
	}
	p.logger.DebugContext(ctx, "food event published",
		"type", event.Type,
		"food_id", event.FoodID,
	)
	return nil
}

// Close releases the client. Publish is synchronous, so nothing is left buffered.
func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
