package kafka

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasParse(t *testing.T) {
	_, err := ParseClickEventSchema()
	assert.NoError(t, err)

	_, err = ParseEnrichedEventSchema()
	assert.NoError(t, err)
}

func TestClickEventRoundTrip(t *testing.T) {
	schema, err := ParseClickEventSchema()
	require.NoError(t, err)

	searchID := "search-1"
	query := "streaming sql"
	event := ClickEvent{
		EventTime: time.UnixMilli(1712345678000).UTC(),
		UserID:    "user1",
		ClickID:   "click-1",
		EventType: "search",
		SearchID:  &searchID,
		Query:     &query,
		Metadata:  map[string]string{"browser": "chrome"},
	}

	data, err := avro.Marshal(schema, event)
	require.NoError(t, err)

	var decoded ClickEvent
	require.NoError(t, avro.Unmarshal(schema, data, &decoded))

	assert.Equal(t, event.EventTime, decoded.EventTime)
	assert.Equal(t, event.UserID, decoded.UserID)
	assert.Equal(t, event.EventType, decoded.EventType)
	require.NotNil(t, decoded.SearchID)
	assert.Equal(t, "search-1", *decoded.SearchID)
	assert.Nil(t, decoded.ProductID)
	assert.Equal(t, "chrome", decoded.Metadata["browser"])
}

func TestEnrichedEventDecodesInputShape(t *testing.T) {
	inSchema, err := ParseClickEventSchema()
	require.NoError(t, err)
	outSchema, err := ParseEnrichedEventSchema()
	require.NoError(t, err)

	productID := "product_1"
	searchID := "search-1"
	data, err := avro.Marshal(inSchema, ClickEvent{
		EventTime: time.UnixMilli(1712345678000).UTC(),
		UserID:    "user1",
		ClickID:   "click-2",
		EventType: "product_click",
		SearchID:  &searchID,
		ProductID: &productID,
		Metadata:  map[string]string{},
	})
	require.NoError(t, err)

	var enriched EnrichedEvent
	require.NoError(t, avro.Unmarshal(outSchema, data, &enriched))

	require.NotNil(t, enriched.SearchID)
	assert.Equal(t, "search-1", *enriched.SearchID)
	require.NotNil(t, enriched.ProductID)
	assert.Equal(t, "product_1", *enriched.ProductID)
}

func TestBuildClickEvents(t *testing.T) {
	base := time.UnixMilli(1712345678000).UTC()
	events := buildClickEvents(base)

	require.Len(t, events, 10)

	byUser := map[string][]ClickEvent{}
	for _, e := range events {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	require.Len(t, byUser, 2)

	for user, evs := range byUser {
		require.Len(t, evs, 5, "user %s", user)

		search := evs[0]
		assert.Equal(t, "search", search.EventType)
		assert.Equal(t, base, search.EventTime)
		require.NotNil(t, search.SearchID)
		assert.NotEmpty(t, *search.SearchID)
		require.NotNil(t, search.Query)
		assert.Nil(t, search.ProductID)

		for i, click := range evs[1:] {
			assert.Equal(t, "product_click", click.EventType)
			assert.Equal(t, base.Add(time.Duration(i+1)*2*time.Second), click.EventTime)
			require.NotNil(t, click.ProductID)
			assert.Nil(t, click.SearchID, "product clicks carry no search identity until enrichment")
		}
	}

	seen := map[string]bool{}
	for _, e := range events {
		assert.False(t, seen[e.ClickID], "click IDs must be unique")
		seen[e.ClickID] = true
	}
}
