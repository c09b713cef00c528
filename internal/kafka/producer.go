package kafka

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"

	"github.com/streamops/pipectl/internal/config"
)

// Producer sends Avro-serialized click events to the input topic using the
// Schema Registry wire framing (magic byte + schema ID).
type Producer struct {
	client *kgo.Client
	serde  sr.Serde
	cfg    *config.Config
	logger *slog.Logger
}

// NewProducer constructs a Producer bound to the input topic. schemaID must
// be the registered ID of the input value schema.
func NewProducer(cfg *config.Config, schemaID int, logger *slog.Logger) (*Producer, error) {
	schema, err := ParseClickEventSchema()
	if err != nil {
		return nil, fmt.Errorf("parse click event schema: %w", err)
	}

	client, err := kgo.NewClient(clientOpts(cfg,
		kgo.DefaultProduceTopic(cfg.InputTopic()),
		kgo.ClientID("click-producer-"+cfg.RunID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)...)
	if err != nil {
		return nil, fmt.Errorf("create producer client: %w", err)
	}

	p := &Producer{client: client, cfg: cfg, logger: logger}
	p.serde.Register(schemaID, ClickEvent{},
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(schema, v)
		}),
	)
	return p, nil
}

// Close flushes and releases the underlying client.
func (p *Producer) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
}

// GenerateEvents produces the canonical click-stream workload: for each of
// two users, one search event carrying a searchId followed by four product
// clicks without one. The product clicks are what the streaming SQL enriches.
func (p *Producer) GenerateEvents(ctx context.Context) error {
	events := buildClickEvents(time.Now().UTC())

	for i, event := range events {
		value, err := p.serde.Encode(event)
		if err != nil {
			return fmt.Errorf("serialize event %d: %w", i+1, err)
		}

		record := &kgo.Record{
			Key:   []byte(event.UserID),
			Value: value,
		}
		p.logger.Info("sending event", "n", i+1, "total", len(events), "type", event.EventType, "user", event.UserID)
		if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce event %d: %w", i+1, err)
		}
	}

	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush producer: %w", err)
	}
	p.logger.Info("all events sent", "count", len(events))
	return nil
}

// buildClickEvents assembles the deterministic 10-event workload: per user,
// one search plus four product clicks at 2-second spacing.
func buildClickEvents(base time.Time) []ClickEvent {
	users := []string{"user1", "user2"}
	metadata := map[string]string{"browser": "chrome", "device": "desktop"}

	var events []ClickEvent
	for _, user := range users {
		searchID := newID()
		query := "search query for " + user

		events = append(events, ClickEvent{
			EventTime: base,
			UserID:    user,
			ClickID:   newID(),
			EventType: "search",
			SearchID:  &searchID,
			Query:     &query,
			Referrer:  ptr("google.com"),
			Metadata:  metadata,
		})

		for i := 0; i < 4; i++ {
			productID := fmt.Sprintf("product_%d", i+1)
			events = append(events, ClickEvent{
				EventTime: base.Add(time.Duration(i+1) * 2 * time.Second),
				UserID:    user,
				ClickID:   newID(),
				EventType: "product_click",
				ProductID: &productID,
				Referrer:  ptr("search_results"),
				Metadata:  metadata,
			})
		}
	}
	return events
}

// newID returns a random 128-bit hex identifier for clicks and searches.
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
