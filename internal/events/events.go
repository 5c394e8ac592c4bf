package events

import (
	"context"
	"time"

	"sales-service/internal/models"
)

const (
	SaleRegistered = "sale.registered"
	SaleDeleted    = "sale.deleted"
)

type SaleEvent struct {
	Type       string            `json:"type"`
	Sale       models.SaleResult `json:"sale"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewSaleEvent(eventType string, sale models.SaleResult, at time.Time) SaleEvent {
	return SaleEvent{Type: eventType, Sale: sale, OccurredAt: at.UTC()}
}

// Publisher delivers sale events after the transaction that produced them
// has committed.
type Publisher interface {
	Publish(ctx context.Context, event SaleEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SaleEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }
