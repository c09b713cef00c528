package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"

	"github.com/streamops/pipectl/internal/config"
)

// Consumer reads enriched events from the output topic until an expected
// count or a timeout, whichever comes first.
type Consumer struct {
	client *kgo.Client
	serde  sr.Serde
	cfg    *config.Config
	logger *slog.Logger
}

// ConsumeSummary reports what a consume pass observed.
type ConsumeSummary struct {
	// Messages is the total number of messages read.
	Messages int
	// Enriched is how many carried a populated searchId, meaning the
	// streaming join succeeded rather than falling back.
	Enriched int
}

// NewConsumer constructs a consumer-group reader for the output topic.
// schemaID must be the registered ID of the output value schema.
func NewConsumer(cfg *config.Config, schemaID int, logger *slog.Logger) (*Consumer, error) {
	schema, err := ParseEnrichedEventSchema()
	if err != nil {
		return nil, fmt.Errorf("parse enriched event schema: %w", err)
	}

	client, err := kgo.NewClient(clientOpts(cfg,
		kgo.ConsumeTopics(cfg.OutputTopic()),
		kgo.ConsumerGroup("enriched-consumer-"+cfg.RunID),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.ClientID("enriched-consumer-"+cfg.RunID),
	)...)
	if err != nil {
		return nil, fmt.Errorf("create consumer client: %w", err)
	}

	c := &Consumer{client: client, cfg: cfg, logger: logger}
	c.serde.Register(schemaID, EnrichedEvent{},
		sr.DecodeFn(func(b []byte, v any) error {
			return avro.Unmarshal(schema, b, v)
		}),
	)
	return c, nil
}

// Close releases the underlying client.
func (c *Consumer) Close() {
	c.client.Close()
}

// Consume polls the output topic until expected enriched events arrived or
// the timeout elapsed. Undecodable records are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, timeout time.Duration, expected int) (ConsumeSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var summary ConsumeSummary
	for summary.Enriched < expected {
		fetches := c.client.PollFetches(ctx)
		if err := firstFatal(fetches); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return summary, fmt.Errorf("poll output topic: %w", err)
		}

		done := false
		fetches.EachRecord(func(record *kgo.Record) {
			var event EnrichedEvent
			if err := c.serde.Decode(record.Value, &event); err != nil {
				c.logger.Warn("skipping undecodable record", "offset", record.Offset, "error", err)
				return
			}

			summary.Messages++
			if event.SearchID != nil && *event.SearchID != "" {
				summary.Enriched++
				c.logger.Info("enriched event",
					"type", event.EventType, "user", event.UserID,
					"searchId", *event.SearchID, "clickId", event.ClickID)
			} else {
				c.logger.Info("event without enrichment", "type", event.EventType, "user", event.UserID)
			}
			if summary.Enriched >= expected {
				done = true
			}
		})
		if done {
			break
		}
	}

	c.logger.Info("consume finished", "messages", summary.Messages, "enriched", summary.Enriched)
	return summary, nil
}

// firstFatal extracts the first non-retriable fetch error, ignoring
// per-partition errors that only mean "nothing yet".
func firstFatal(fetches kgo.Fetches) error {
	for _, fe := range fetches.Errors() {
		if fe.Err != nil {
			return fe.Err
		}
	}
	return nil
}
