package dto

import (
	"time"

	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
)

type NotificationResponse struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	ReadAt    *string        `json:"read_at,omitempty"`
	CreatedAt string         `json:"created_at"`
}

type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Cursor string                 `json:"cursor,omitempty"`
}

func FromNotificationList(result *notifications.ListResult) NotificationListResponse {
	out := NotificationListResponse{Items: []NotificationResponse{}}
	if result == nil {
		return out
	}
	out.Cursor = result.Cursor
	for _, n := range result.Items {
		out.Items = append(out.Items, NotificationResponse{
			ID:        n.ID.String(),
			Event:     string(n.Event),
			Payload:   n.Payload,
			ReadAt:    formatTime(n.ReadAt),
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
