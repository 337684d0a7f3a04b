// Package events publishes wallet enrichment results for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"riskScope/internal/model"
)

const TypeWalletEnriched = "wallet.enriched"

const (
	writeTimeout = 2 * time.Second
	maxAttempts  = 2
)

// Publisher receives every persisted enrichment.
type Publisher interface {
	PublishEnriched(ctx context.Context, w model.EnrichedWallet) error
	Close() error
}

// WalletEnriched is the message value written for each enrichment.
type WalletEnriched struct {
	Type          string               `json:"type"`
	WalletID      string               `json:"wallet_id"`
	Address       string               `json:"wallet_address"`
	CustomerID    string               `json:"customer_id"`
	BaseRisk      int                  `json:"risk_score"`
	CompositeRisk int                  `json:"combined_risk_score"`
	Breakdown     *model.RiskBreakdown `json:"risk_breakdown,omitempty"`
	MarketStatus  model.ProviderStatus `json:"market_status"`
	ChainStatus   model.ProviderStatus `json:"chain_status"`
	EnrichedAt    time.Time            `json:"enriched_at"`
}

func newWalletEnriched(w model.EnrichedWallet) WalletEnriched {
	ev := WalletEnriched{
		Type:          TypeWalletEnriched,
		WalletID:      w.ID,
		Address:       w.Address,
		CustomerID:    w.CustomerID,
		BaseRisk:      w.RiskScore,
		CompositeRisk: w.EffectiveRisk(),
		Breakdown:     w.Breakdown,
		MarketStatus:  w.MarketStatus,
		ChainStatus:   w.ChainStatus,
	}
	if w.LastEnriched != nil {
		ev.EnrichedAt = *w.LastEnriched
	}
	return ev
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per enrichment, keyed by wallet address so
// that updates of one wallet stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: writeTimeout,
		MaxAttempts:  maxAttempts,
	}, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) PublishEnriched(ctx context.Context, w model.EnrichedWallet) error {
	value, err := json.Marshal(newWalletEnriched(w))
	if err != nil {
		return fmt.Errorf("marshal enrichment event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strings.ToLower(w.Address)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeWalletEnriched)},
		},
	})
	if err != nil {
		return fmt.Errorf("write enrichment event: %w", err)
	}

	p.logger.Debug("published enrichment event", zap.String("wallet", w.Address))
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishEnriched(context.Context, model.EnrichedWallet) error { return nil }
func (Nop) Close() error                                                { return nil }

// New returns a Kafka publisher, or Nop when brokers is empty.
func New(brokers []string, topic string, logger *zap.Logger) Publisher {
	var clean []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			clean = append(clean, b)
		}
	}
	if len(clean) == 0 {
		return Nop{}
	}
	if topic == "" {
		topic = "riskscope.wallet-enrichment"
	}
	return NewKafkaPublisher(clean, topic, logger)
}
