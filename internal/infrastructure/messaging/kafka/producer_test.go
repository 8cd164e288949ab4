package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

// mockKafkaWriter
type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{}
}

type indexLinkedEvent struct {
	common.BaseEvent
	PreviousIndexID string `json:"previous_index_id"`
}

func newTestEvent(eventType, aggID string) common.DomainEvent {
	return &indexLinkedEvent{
		BaseEvent:       common.NewBaseEvent(eventType, aggID),
		PreviousIndexID: "idx-prev",
	}
}

func newTestPublisher(mockWriter WriterInterface) *Publisher {
	return &Publisher{
		writer:  mockWriter,
		cfg:     config.KafkaConfig{Brokers: []string{"localhost:9092"}, TopicPrefix: "continuity"},
		logger:  logging.NewNopLogger(),
		metrics: &PublisherMetrics{},
	}
}

func TestNewPublisher_EmptyBrokers(t *testing.T) {
	_, err := NewPublisher(config.KafkaConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestPublish_Success(t *testing.T) {
	var capturedMsgs []kafka.Message
	mock := &mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			capturedMsgs = msgs
			return nil
		},
	}
	p := newTestPublisher(mock)

	event := newTestEvent("continuity.index.linked", "idx-2025")
	err := p.Publish(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, capturedMsgs, 1)

	msg := capturedMsgs[0]
	assert.Equal(t, "continuity.index.activity", msg.Topic)
	assert.Equal(t, "idx-2025", string(msg.Key))
	assert.Equal(t, int64(1), p.metrics.MessagesSent.Load())

	var decoded indexLinkedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "continuity.index.linked", decoded.Type)
	assert.Equal(t, "idx-prev", decoded.PreviousIndexID)
}

func TestPublish_CarriesEventHeaders(t *testing.T) {
	var capturedMsgs []kafka.Message
	mock := &mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			capturedMsgs = msgs
			return nil
		},
	}
	p := newTestPublisher(mock)

	event := newTestEvent("continuity.answer.reviewed", "req-1")
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, capturedMsgs, 1)

	headers := make(map[string]string)
	for _, h := range capturedMsgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "continuity.answer.reviewed", headers["event_type"])
	assert.Equal(t, event.EventID(), headers["event_id"])
}

func TestPublish_Failure(t *testing.T) {
	mock := &mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("write failed")
		},
	}
	p := newTestPublisher(mock)

	err := p.Publish(context.Background(), newTestEvent("continuity.index.completed", "idx-1"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), p.metrics.MessagesFailed.Load())
}

func TestPublish_AfterClose(t *testing.T) {
	p := newTestPublisher(&mockKafkaWriter{})
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), newTestEvent("continuity.index.linked", "idx-1"))
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestClose_Idempotent(t *testing.T) {
	closeCount := 0
	mock := &mockKafkaWriter{
		closeFunc: func() error {
			closeCount++
			return nil
		},
	}
	p := newTestPublisher(mock)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, closeCount)
}
