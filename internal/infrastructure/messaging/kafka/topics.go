package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
)

// Topic suffixes per event family. The configured topic prefix is prepended,
// so the full topic for index events is e.g. "continuity.index.activity".
const (
	TopicIndexActivity         = "index.activity"
	TopicAnswerActivity        = "answer.activity"
	TopicRecommendationBatches = "recommendation.batches"
	TopicActivityDefault       = "activity"
)

// topicFor maps an event type such as "continuity.index.linked" to its
// fully-qualified topic name.
func (p *Publisher) topicFor(eventType string) string {
	prefix := p.cfg.TopicPrefix
	if prefix == "" {
		prefix = "continuity"
	}
	return prefix + "." + topicSuffix(eventType)
}

func topicSuffix(eventType string) string {
	parts := strings.Split(eventType, ".")
	if len(parts) < 2 {
		return TopicActivityDefault
	}
	switch parts[1] {
	case "index":
		return TopicIndexActivity
	case "answer":
		return TopicAnswerActivity
	case "recommendation_batch":
		return TopicRecommendationBatches
	default:
		return TopicActivityDefault
	}
}

// TopicConfig describes one topic to provision.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions the activity topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.ErrCodeValidation, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "retention.ms",
			ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs),
		})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		exists, _ := m.TopicExists(ctx, cfg.Name)
		if exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create topic")
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics provisions every listed topic, skipping ones that exist.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultTopics provisions the activity topics under the given prefix.
func (m *TopicManager) EnsureDefaultTopics(ctx context.Context, prefix string) error {
	if prefix == "" {
		prefix = "continuity"
	}
	return m.EnsureTopics(ctx, DefaultTopics(prefix))
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics lists the activity topics the engine publishes to. Batch
// results are kept longer since they back the upload audit trail.
func DefaultTopics(prefix string) []TopicConfig {
	return []TopicConfig{
		{Name: prefix + "." + TopicIndexActivity, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: prefix + "." + TopicAnswerActivity, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: prefix + "." + TopicRecommendationBatches, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: prefix + "." + TopicActivityDefault, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 7 * 24 * 3600 * 1000},
	}
}
