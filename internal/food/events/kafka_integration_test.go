//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"nutri/internal/food/events"
	"nutri/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *events.KafkaPublisher
	topic     string
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.topic = "food-events-test"

	publisher, err := events.NewKafkaPublisher([]string{s.redpanda.Broker}, s.topic)
	s.Require().NoError(err)
	s.publisher = publisher

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.publisher.EnsureTopic(ctx, 1, 1))
	// A second call must tolerate the topic already existing.
	s.Require().NoError(s.publisher.EnsureTopic(ctx, 1, 1))
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
}

func (s *KafkaPublisherSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := events.Event{
		Type:       events.TypeFoodCreated,
		FoodID:     "food-kafka-1",
		Name:       "Apple",
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(s.publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	for {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for event")
		for _, record := range fetches.Records() {
			if string(record.Key) != event.FoodID {
				continue
			}
			var got events.Event
			s.Require().NoError(json.Unmarshal(record.Value, &got))
			s.Equal(event, got)
			return
		}
	}
}
