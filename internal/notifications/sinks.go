package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/harvestlink-backend/pkg/config"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/redis"
)

const (
	SinkNameStore    = "store"
	SinkNameRealtime = "realtime"
	SinkNamePubSub   = "pubsub"
)

// StoreSink persists user-targeted messages to the in-app inbox.
// Broadcasts have no owner and are not stored.
type StoreSink struct {
	repo Repository
}

func NewStoreSink(repo Repository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return SinkNameStore }

func (s *StoreSink) Deliver(ctx context.Context, msg Message) error {
	if msg.IsBroadcast() {
		return nil
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID:  *msg.UserID,
		Event:   msg.Event,
		Payload: msg.Payload,
	})
}

// RealtimeSink publishes messages on Redis channels read by the websocket stream.
type RealtimeSink struct {
	publisher redis.Publisher
	prefix    string
	broadcast string
}

func NewRealtimeSink(publisher redis.Publisher, channelPrefix, broadcastChannel string) *RealtimeSink {
	return &RealtimeSink{publisher: publisher, prefix: channelPrefix, broadcast: broadcastChannel}
}

func (s *RealtimeSink) Name() string { return SinkNameRealtime }

func (s *RealtimeSink) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode realtime message: %w", err)
	}
	channel := s.publisher.ChannelName(s.broadcast)
	if !msg.IsBroadcast() {
		channel = UserChannel(s.publisher, s.prefix, msg.UserID.String())
	}
	if err := s.publisher.Publish(ctx, channel, body); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// UserChannel is the Redis channel carrying one user's realtime feed.
func UserChannel(namer interface{ ChannelName(...string) string }, prefix, userID string) string {
	return namer.ChannelName(prefix, userID)
}

// MessagePublisher publishes a single encoded message and waits for the ack.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, data []byte, attributes map[string]string) error
}

// TopicPublisher adapts a Pub/Sub v2 publisher to MessagePublisher.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

func NewTopicPublisher(publisher *pubsub.Publisher) *TopicPublisher {
	return &TopicPublisher{publisher: publisher}
}

func (p *TopicPublisher) PublishMessage(ctx context.Context, data []byte, attributes map[string]string) error {
	if p == nil || p.publisher == nil {
		return fmt.Errorf("pubsub publisher not configured")
	}
	_, err := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes}).Get(ctx)
	return err
}

// PubSubSink forwards every message to the commerce topic for downstream consumers.
type PubSubSink struct {
	publisher MessagePublisher
}

func NewPubSubSink(publisher MessagePublisher) *PubSubSink {
	return &PubSubSink{publisher: publisher}
}

func (s *PubSubSink) Name() string { return SinkNamePubSub }

func (s *PubSubSink) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode pubsub message: %w", err)
	}
	attrs := map[string]string{"event": string(msg.Event)}
	if msg.UserID != nil {
		attrs["user_id"] = msg.UserID.String()
	}
	if err := s.publisher.PublishMessage(ctx, body, attrs); err != nil {
		return fmt.Errorf("publish commerce event: %w", err)
	}
	return nil
}

// SinksFromConfig assembles the sinks enabled in cfg. A sink whose backend is
// nil is left out.
func SinksFromConfig(cfg config.NotificationsConfig, repo Repository, publisher redis.Publisher, topic MessagePublisher) []Sink {
	var sinks []Sink
	if cfg.SinkEnabled(config.SinkStore) && repo != nil {
		sinks = append(sinks, NewStoreSink(repo))
	}
	if cfg.SinkEnabled(config.SinkRealtime) && publisher != nil {
		sinks = append(sinks, NewRealtimeSink(publisher, cfg.RealtimeChannelPrefix, cfg.BroadcastChannel))
	}
	if cfg.SinkEnabled(config.SinkPubSub) && topic != nil {
		sinks = append(sinks, NewPubSubSink(topic))
	}
	return sinks
}
