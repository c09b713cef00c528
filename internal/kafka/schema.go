package kafka

import (
	"time"

	"github.com/hamba/avro/v2"
)

// ClickEventSchema is the Avro value schema for the input topic.
const ClickEventSchema = `{
  "type": "record",
  "name": "ClickEvent",
  "namespace": "com.pipeline.events",
  "fields": [
    {"name": "eventTime", "type": {"type": "long", "logicalType": "timestamp-millis"}},
    {"name": "userId", "type": "string"},
    {"name": "clickId", "type": "string"},
    {"name": "eventType", "type": "string"},
    {"name": "searchId", "type": ["null", "string"], "default": null},
    {"name": "productId", "type": ["null", "string"], "default": null},
    {"name": "query", "type": ["null", "string"], "default": null},
    {"name": "referrer", "type": ["null", "string"], "default": null},
    {"name": "metadata", "type": {"type": "map", "values": "string"}}
  ]
}`

// EnrichedEventSchema is the Avro value schema for the output topic. The
// enrichment joins product clicks back to the search that led to them, so
// the shape matches the input with the searchId populated.
const EnrichedEventSchema = `{
  "type": "record",
  "name": "EnrichedClickEvent",
  "namespace": "com.pipeline.events",
  "fields": [
    {"name": "eventTime", "type": {"type": "long", "logicalType": "timestamp-millis"}},
    {"name": "userId", "type": "string"},
    {"name": "clickId", "type": "string"},
    {"name": "eventType", "type": "string"},
    {"name": "searchId", "type": ["null", "string"], "default": null},
    {"name": "productId", "type": ["null", "string"], "default": null},
    {"name": "query", "type": ["null", "string"], "default": null},
    {"name": "referrer", "type": ["null", "string"], "default": null},
    {"name": "metadata", "type": {"type": "map", "values": "string"}}
  ]
}`

// ClickEvent is one click-stream event on the input topic.
type ClickEvent struct {
	EventTime time.Time         `avro:"eventTime"`
	UserID    string            `avro:"userId"`
	ClickID   string            `avro:"clickId"`
	EventType string            `avro:"eventType"`
	SearchID  *string           `avro:"searchId"`
	ProductID *string           `avro:"productId"`
	Query     *string           `avro:"query"`
	Referrer  *string           `avro:"referrer"`
	Metadata  map[string]string `avro:"metadata"`
}

// EnrichedEvent is one enriched event on the output topic.
type EnrichedEvent struct {
	EventTime time.Time         `avro:"eventTime"`
	UserID    string            `avro:"userId"`
	ClickID   string            `avro:"clickId"`
	EventType string            `avro:"eventType"`
	SearchID  *string           `avro:"searchId"`
	ProductID *string           `avro:"productId"`
	Query     *string           `avro:"query"`
	Referrer  *string           `avro:"referrer"`
	Metadata  map[string]string `avro:"metadata"`
}

// ParseClickEventSchema parses the input value schema.
func ParseClickEventSchema() (avro.Schema, error) {
	return avro.Parse(ClickEventSchema)
}

// ParseEnrichedEventSchema parses the output value schema.
func ParseEnrichedEventSchema() (avro.Schema, error) {
	return avro.Parse(EnrichedEventSchema)
}
