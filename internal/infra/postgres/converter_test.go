package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	pg := UUIDToPgtype(id)
	assert.True(t, pg.Valid)
	assert.Equal(t, id, PgtypeToUUID(pg))
}

func TestMetadataToJSON(t *testing.T) {
	b, err := MetadataToJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	b, err = MetadataToJSON(map[string]any{
		"chunk_sequence": 2,
		"content":        "hello",
		"embedding":      []float32{0.5, 1},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"chunk_sequence": 2, "content": "hello", "embedding": [0.5, 1]}`, string(b))
}

func TestNewVectorStore_Defaults(t *testing.T) {
	store := NewVectorStore(nil)
	assert.Equal(t, DefaultCollectionName, store.CollectionName())

	store = NewVectorStore(nil, WithCollectionName("custom"), WithCollectionName(""))
	assert.Equal(t, "custom", store.CollectionName())
}
