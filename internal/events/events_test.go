package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closes int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closes++
	return nil
}

func TestPublishEnriched(t *testing.T) {
	fw := &fakeWriter{}
	p := newKafkaPublisher(fw, nil)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	score := 65
	w := model.EnrichedWallet{
		Wallet: model.Wallet{
			ID: "w1", Address: "0xABCdef", CustomerID: "c1", RiskScore: 30,
			CompositeRisk: &score, LastEnriched: &at,
		},
		MarketStatus: model.ProviderOK,
		ChainStatus:  model.ProviderFailed,
	}
	require.NoError(t, p.PublishEnriched(context.Background(), w))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "0xabcdef", string(fw.msgs[0].Key))

	var ev WalletEnriched
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &ev))
	assert.Equal(t, TypeWalletEnriched, ev.Type)
	assert.Equal(t, 65, ev.CompositeRisk)
	assert.Equal(t, 30, ev.BaseRisk)
	assert.Equal(t, model.ProviderFailed, ev.ChainStatus)
	assert.True(t, at.Equal(ev.EnrichedAt))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, fw.closes)
}

func TestPublishEnrichedWriteError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, nil)
	err := p.PublishEnriched(context.Background(), model.EnrichedWallet{})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewWithoutBrokersIsNop(t *testing.T) {
	p := New([]string{" ", ""}, "topic", nil)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.PublishEnriched(context.Background(), model.EnrichedWallet{}))

	assert.IsType(t, &KafkaPublisher{}, New([]string{"localhost:9092"}, "", nil))
}

func TestNewKafkaPublisherBoundsWrites(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "wallets", nil)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, writeTimeout, w.WriteTimeout)
	assert.Equal(t, maxAttempts, w.MaxAttempts)
	assert.NoError(t, p.Close())
}
