package notifications

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Recorder keeps every dispatched message in memory. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) NotifyUser(_ context.Context, userID uuid.UUID, event enums.NotificationEvent, payload map[string]any) {
	id := userID
	r.append(Message{Event: event, UserID: &id, Payload: payload})
}

func (r *Recorder) Broadcast(_ context.Context, event enums.NotificationEvent, payload map[string]any) {
	r.append(Message{Event: event, Payload: payload})
}

func (r *Recorder) append(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Sent returns the messages for event addressed to userID. A nil userID selects broadcasts.
func (r *Recorder) Sent(event enums.NotificationEvent, userID *uuid.UUID) []Message {
	var out []Message
	for _, msg := range r.Messages() {
		if msg.Event != event {
			continue
		}
		switch {
		case userID == nil && msg.IsBroadcast():
			out = append(out, msg)
		case userID != nil && msg.UserID != nil && *msg.UserID == *userID:
			out = append(out, msg)
		}
	}
	return out
}
