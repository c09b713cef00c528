// Package kafka provides the topic admin, Schema Registry, and data-path
// collaborators for the pipeline: create/delete topics, register/delete Avro
// subjects, produce click events and consume enriched results.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/streamops/pipectl/internal/config"
)

// clientOpts builds the shared kgo options for SASL_SSL/PLAIN Confluent
// clusters.
func clientOpts(cfg *config.Config, extra ...kgo.Opt) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.BootstrapServers, ",")...),
		kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		kgo.SASL(plain.Auth{
			User: cfg.SASLUsername,
			Pass: cfg.SASLPassword,
		}.AsMechanism()),
	}
	return append(opts, extra...)
}

// Admin manages the run's Kafka topics.
type Admin struct {
	client *kgo.Client
	admin  *kadm.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewAdmin constructs an Admin connected to the configured cluster.
func NewAdmin(cfg *config.Config, logger *slog.Logger) (*Admin, error) {
	client, err := kgo.NewClient(clientOpts(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka admin client: %w", err)
	}
	return &Admin{
		client: client,
		admin:  kadm.NewClient(client),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Close releases the underlying client.
func (a *Admin) Close() {
	a.client.Close()
}

// CreateTopics creates the run's input and output topics with the configured
// partition count, replication factor and retention. A topic that already
// exists is an idempotent non-error.
func (a *Admin) CreateTopics(ctx context.Context) error {
	topics := a.cfg.Pipeline.Topics
	configs := map[string]*string{
		"cleanup.policy": ptr("delete"),
		"retention.ms":   ptr(strconv.FormatInt(topics.RetentionOrDefault(), 10)),
	}

	resps, err := a.admin.CreateTopics(ctx,
		topics.PartitionsOrDefault(),
		topics.ReplicationOrDefault(),
		configs,
		a.cfg.InputTopic(), a.cfg.OutputTopic(),
	)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}

	for _, resp := range resps.Sorted() {
		if resp.Err != nil {
			if errors.Is(resp.Err, kerr.TopicAlreadyExists) {
				a.logger.Info("topic already exists", "topic", resp.Topic)
				continue
			}
			return fmt.Errorf("create topic %q: %w", resp.Topic, resp.Err)
		}
		a.logger.Info("created topic", "topic", resp.Topic)
	}
	return nil
}

// DeleteTopics deletes the run's topics. Unknown topics are idempotent
// non-errors; other per-topic failures are logged and skipped so teardown
// continues.
func (a *Admin) DeleteTopics(ctx context.Context) error {
	resps, err := a.admin.DeleteTopics(ctx, a.cfg.InputTopic(), a.cfg.OutputTopic())
	if err != nil {
		return fmt.Errorf("delete topics: %w", err)
	}

	for _, resp := range resps.Sorted() {
		if resp.Err != nil {
			if errors.Is(resp.Err, kerr.UnknownTopicOrPartition) {
				a.logger.Info("topic does not exist", "topic", resp.Topic)
				continue
			}
			a.logger.Warn("failed to delete topic, continuing", "topic", resp.Topic, "error", resp.Err)
			continue
		}
		a.logger.Info("deleted topic", "topic", resp.Topic)
	}
	return nil
}

func ptr(s string) *string { return &s }
