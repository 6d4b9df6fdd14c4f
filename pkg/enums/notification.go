package enums

import "fmt"

// NotificationEvent is the event name delivered to users and realtime feeds.
type NotificationEvent string

const (
	NotificationCartUpdated        NotificationEvent = "cart_updated"
	NotificationOrderCreated       NotificationEvent = "order_created"
	NotificationNewOrder           NotificationEvent = "new_order"
	NotificationOrderStatusChanged NotificationEvent = "order_status_changed"
	NotificationOrderCancelled     NotificationEvent = "order_cancelled"
	NotificationPaymentInitiated   NotificationEvent = "payment_initiated"
	NotificationPaymentConfirmed   NotificationEvent = "payment_confirmed"
	NotificationPaymentSettled     NotificationEvent = "payment_settled"
	NotificationPaymentFailed      NotificationEvent = "payment_failed"
	NotificationPaymentRefunded    NotificationEvent = "payment_refunded"
)

var validNotificationEvents = []NotificationEvent{
	NotificationCartUpdated,
	NotificationOrderCreated,
	NotificationNewOrder,
	NotificationOrderStatusChanged,
	NotificationOrderCancelled,
	NotificationPaymentInitiated,
	NotificationPaymentConfirmed,
	NotificationPaymentSettled,
	NotificationPaymentFailed,
	NotificationPaymentRefunded,
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid checks whether the given event is known.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw strings into NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
