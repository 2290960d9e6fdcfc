package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/smukkama/launch-advisor/internal/engine"
	"github.com/smukkama/launch-advisor/internal/metrics"
	"github.com/smukkama/launch-advisor/internal/protocol"
)

// DecisionPublisher publishes every computed decision to a Kafka topic,
// keyed by location id so one location's decisions stay ordered within
// a partition. Implements engine.DecisionSink.
type DecisionPublisher struct {
	producer *Producer
}

// NewDecisionPublisher creates a Kafka-backed decision sink
func NewDecisionPublisher(brokers []string, topic string) *DecisionPublisher {
	return &DecisionPublisher{producer: NewProducer(brokers, topic)}
}

// AppendDecision encodes and publishes one decision
func (p *DecisionPublisher) AppendDecision(ctx context.Context, d *engine.Decision) error {
	data, err := protocol.EncodeDecisionMessage(protocol.FromDecision(d))
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}

	key := strconv.FormatInt(d.LocationID, 10)
	if err := p.producer.Publish(ctx, key, data); err != nil {
		metrics.SinkAppendFailures.WithLabelValues("kafka").Inc()
		return fmt.Errorf("failed to publish decision: %w", err)
	}

	return nil
}

// Close closes the underlying producer
func (p *DecisionPublisher) Close() error {
	return p.producer.Close()
}
