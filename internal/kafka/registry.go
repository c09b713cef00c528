package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/twmb/franz-go/pkg/sr"

	"github.com/streamops/pipectl/internal/config"
)

// Registry manages the run's Schema Registry subjects.
type Registry struct {
	client *sr.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewRegistry constructs a Registry client for the configured endpoint.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	client, err := sr.NewClient(
		sr.URLs(cfg.SchemaRegistryEndpoint),
		sr.BasicAuth(cfg.SchemaRegistryAPIKey, cfg.SchemaRegistryAPISecret),
	)
	if err != nil {
		return nil, fmt.Errorf("create schema registry client: %w", err)
	}
	return &Registry{client: client, cfg: cfg, logger: logger}, nil
}

// RegisterSchemas validates and registers the input and output value schemas
// under the run-scoped subjects, returning the assigned schema IDs keyed by
// subject.
func (r *Registry) RegisterSchemas(ctx context.Context) (map[string]int, error) {
	// Parse first so an invalid schema fails before any remote call.
	if _, err := ParseClickEventSchema(); err != nil {
		return nil, fmt.Errorf("invalid click event schema: %w", err)
	}
	if _, err := ParseEnrichedEventSchema(); err != nil {
		return nil, fmt.Errorf("invalid enriched event schema: %w", err)
	}

	ids := make(map[string]int, 2)
	for subject, schema := range map[string]string{
		r.cfg.InputSubject():  ClickEventSchema,
		r.cfg.OutputSubject(): EnrichedEventSchema,
	} {
		ss, err := r.client.CreateSchema(ctx, subject, sr.Schema{
			Schema: schema,
			Type:   sr.TypeAvro,
		})
		if err != nil {
			return nil, fmt.Errorf("register schema for subject %q: %w", subject, err)
		}
		r.logger.Info("registered schema", "subject", subject, "id", ss.ID)
		ids[subject] = ss.ID
	}
	return ids, nil
}

// DeleteSubjects removes the run's subjects. A subject that was never
// registered is an idempotent non-error; other failures are logged and
// skipped so teardown continues.
func (r *Registry) DeleteSubjects(ctx context.Context) error {
	for _, subject := range []string{r.cfg.InputSubject(), r.cfg.OutputSubject()} {
		versions, err := r.client.DeleteSubject(ctx, subject, sr.SoftDelete)
		if err != nil {
			if isSubjectNotFound(err) {
				r.logger.Info("schema subject not found", "subject", subject)
				continue
			}
			r.logger.Warn("failed to delete schema subject, continuing", "subject", subject, "error", err)
			continue
		}
		r.logger.Info("deleted schema subject", "subject", subject, "versions", versions)
	}
	return nil
}

// isSubjectNotFound detects the registry's 404 subject responses.
func isSubjectNotFound(err error) bool {
	var respErr *sr.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
