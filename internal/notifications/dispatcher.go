package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
)

// Dispatcher fans commerce events out to users. Delivery is best effort:
// failures are logged and never returned to the caller.
type Dispatcher interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event enums.NotificationEvent, payload map[string]any)
	Broadcast(ctx context.Context, event enums.NotificationEvent, payload map[string]any)
}

// Message is a single delivery handed to every sink. UserID is nil for broadcasts.
type Message struct {
	Event      enums.NotificationEvent `json:"event"`
	UserID     *uuid.UUID              `json:"user_id,omitempty"`
	Payload    map[string]any          `json:"payload,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// IsBroadcast reports whether the message targets every listener.
func (m Message) IsBroadcast() bool {
	return m.UserID == nil
}

// Sink delivers messages to one backend (inbox table, realtime channel, Pub/Sub).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

type dispatcher struct {
	sinks []Sink
	logg  *logger.Logger
	now   func() time.Time
}

// NewDispatcher builds a dispatcher over the given sinks. Nil sinks are skipped.
func NewDispatcher(logg *logger.Logger, sinks ...Sink) Dispatcher {
	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &dispatcher{
		sinks: active,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (d *dispatcher) NotifyUser(ctx context.Context, userID uuid.UUID, event enums.NotificationEvent, payload map[string]any) {
	if userID == uuid.Nil {
		return
	}
	id := userID
	d.deliver(ctx, Message{Event: event, UserID: &id, Payload: payload, OccurredAt: d.now()})
}

func (d *dispatcher) Broadcast(ctx context.Context, event enums.NotificationEvent, payload map[string]any) {
	d.deliver(ctx, Message{Event: event, Payload: payload, OccurredAt: d.now()})
}

func (d *dispatcher) deliver(ctx context.Context, msg Message) {
	var errs error
	failed := []string{}
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, msg); err != nil {
			errs = multierr.Append(errs, err)
			failed = append(failed, sink.Name())
		}
	}
	if errs == nil || d.logg == nil {
		return
	}

	fields := map[string]any{
		"event":        msg.Event,
		"failed_sinks": failed,
	}
	if msg.UserID != nil {
		fields["user_id"] = msg.UserID.String()
	}
	d.logg.Error(d.logg.WithFields(ctx, fields), "notification delivery failed", errs)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) NotifyUser(context.Context, uuid.UUID, enums.NotificationEvent, map[string]any) {}
func (Noop) Broadcast(context.Context, enums.NotificationEvent, map[string]any)             {}
