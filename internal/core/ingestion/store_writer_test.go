package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWriter_BuildsRecords(t *testing.T) {
	store := &stubStore{}
	w := NewStoreWriter(store, discardLogger())

	chunks := []string{"alpha", "beta"}
	embeddings := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	stored, err := w.StoreEmbeddings(context.Background(), "doc.txt", chunks, embeddings)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Equal(t, 1, store.calls)
	require.Len(t, store.records, 2)

	seen := map[uuid.UUID]bool{}
	for i, r := range store.records {
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.False(t, seen[r.ID], "ids must be unique")
		seen[r.ID] = true

		assert.Equal(t, chunks[i], r.Content)
		assert.Equal(t, embeddings[i], r.Embedding)
		assert.Equal(t, i, r.Metadata[MetadataChunkSequence])
		assert.Equal(t, chunks[i], r.Metadata[MetadataContent])
		assert.Equal(t, embeddings[i], r.Metadata[MetadataEmbedding])
		assert.Equal(t, "doc.txt", r.Metadata[MetadataSource])
	}
}

func TestStoreWriter_CopiesEmbeddings(t *testing.T) {
	store := &stubStore{}
	w := NewStoreWriter(store, discardLogger())

	embedding := []float32{1, 2, 3}
	_, err := w.StoreEmbeddings(context.Background(), "", []string{"x"}, [][]float32{embedding})
	require.NoError(t, err)

	embedding[0] = 99
	assert.Equal(t, float32(1), store.records[0].Embedding[0])
	_, hasSource := store.records[0].Metadata[MetadataSource]
	assert.False(t, hasSource)
}

func TestStoreWriter_DimensionMismatchWritesNothing(t *testing.T) {
	store := &stubStore{}
	w := NewStoreWriter(store, discardLogger())

	chunks := []string{"a", "b", "c"}
	embeddings := [][]float32{{1, 2, 3}, {1, 2, 3}, {1, 2}}

	stored, err := w.StoreEmbeddings(context.Background(), "doc.txt", chunks, embeddings)
	require.Error(t, err)
	assert.Zero(t, stored)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var mismatch *DimensionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Index)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)

	assert.Zero(t, store.calls)
}

func TestStoreWriter_EmptyBatchSkipsStore(t *testing.T) {
	store := &stubStore{}
	w := NewStoreWriter(store, discardLogger())

	stored, err := w.StoreEmbeddings(context.Background(), "doc.txt", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Zero(t, store.calls)
}

func TestStoreWriter_LengthMismatch(t *testing.T) {
	store := &stubStore{}
	w := NewStoreWriter(store, discardLogger())

	_, err := w.StoreEmbeddings(context.Background(), "", []string{"a", "b"}, [][]float32{{1}})
	assert.ErrorIs(t, err, ErrStorage)
	assert.Zero(t, store.calls)
}

func TestStoreWriter_StoreFailureIsWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	store := &stubStore{err: cause}
	w := NewStoreWriter(store, discardLogger())

	_, err := w.StoreEmbeddings(context.Background(), "", []string{"a"}, [][]float32{{1}})
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
}
