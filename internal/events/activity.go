package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCartItemAdded       Kind = "CartItemAdded"
	KindCartQuantityChanged Kind = "CartQuantityChanged"
	KindCartItemRemoved     Kind = "CartItemRemoved"
	KindCheckoutSubmitted   Kind = "CheckoutSubmitted"
)

const activityVersion = 1

func (k Kind) routingKey() (string, error) {
	switch k {
	case KindCartItemAdded:
		return CartItemAddedRoutingKey, nil
	case KindCartQuantityChanged:
		return CartQuantityChangedRoutingKey, nil
	case KindCartItemRemoved:
		return CartItemRemovedRoutingKey, nil
	case KindCheckoutSubmitted:
		return CheckoutSubmittedRoutingKey, nil
	default:
		return "", fmt.Errorf("unknown activity kind %q", k)
	}
}

// Activity is one storefront mutation the API accepted.
type Activity struct {
	Kind          Kind
	ViewerID      string
	CorrelationID string
	ProductID     int
	Delta         int
}

// EventEnvelope is the envelope shared by every service on the events
// exchange.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

type ActivityPayload struct {
	ViewerID  string `json:"viewerId"`
	ProductID int    `json:"productId,omitempty"`
	Delta     int    `json:"delta,omitempty"`
}

func newActivityEvent(a Activity, seq int64, occurredAt time.Time) EventEnvelope[ActivityPayload] {
	return EventEnvelope[ActivityPayload]{
		EventName:     string(a.Kind),
		EventVersion:  activityVersion,
		EventID:       uuid.NewString(),
		CorrelationID: a.CorrelationID,
		Producer:      producerName,
		PartitionKey:  a.ViewerID,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        fmt.Sprintf("contracts/events/storefront/%s.v%d.enveloped.schema.json", a.Kind, activityVersion),
		Payload: ActivityPayload{
			ViewerID:  a.ViewerID,
			ProductID: a.ProductID,
			Delta:     a.Delta,
		},
	}
}
