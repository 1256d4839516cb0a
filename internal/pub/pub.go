package pub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
)

const EntryEventsTopic = "wallet.entries"

// EntryEventPublisher pushes posted-entry events to Kafka for downstream
// consumers (CRM, notifications, analytics). The entry is already durable
// when an event goes out; delivery is best-effort and never fails a post.
type EntryEventPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewEntryEventPublisher(brokers []string, log *zap.Logger) *EntryEventPublisher {
	return &EntryEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        EntryEventsTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		log: log,
	}
}

type entryLegEvent struct {
	AccountID    int64           `json:"account_id"`
	WalletID     int64           `json:"wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	BaseAmount   decimal.Decimal `json:"base_amount"`
	CurrencyCode string          `json:"currency_code"`
}

type entryEvent struct {
	EventType     string          `json:"event_type"` // entry.posted
	EntryID       int64           `json:"entry_id"`
	ReferenceCode string          `json:"reference_code"`
	Purpose       string          `json:"purpose"`
	RequesterType string          `json:"requester_type"`
	RequesterID   string          `json:"requester_id"`
	Legs          []entryLegEvent `json:"legs"`
	CreatedAt     time.Time       `json:"created_at"`
	Timestamp     time.Time       `json:"timestamp"`
}

// EntryPosted publishes an entry.posted event keyed by reference code.
func (p *EntryEventPublisher) EntryPosted(ctx context.Context, e *domain.WalletEntry) {
	event := entryEvent{
		EventType:     "entry.posted",
		EntryID:       e.ID,
		ReferenceCode: e.ReferenceCode,
		Purpose:       string(e.Purpose),
		RequesterType: string(e.RequesterType),
		RequesterID:   e.RequesterID,
		CreatedAt:     e.CreatedAt,
		Timestamp:     time.Now(),
	}
	for _, t := range e.Transactions {
		event.Legs = append(event.Legs, entryLegEvent{
			AccountID:    t.AccountID,
			WalletID:     t.WalletID,
			Amount:       t.Amount,
			BaseAmount:   t.BaseAmount,
			CurrencyCode: t.CurrencyCode,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to marshal entry event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ReferenceCode),
		Value: payload,
	})
	if err != nil {
		p.log.Error("failed to publish entry event",
			zap.String("reference", e.ReferenceCode),
			zap.Error(err),
		)
	}
}

func (p *EntryEventPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
