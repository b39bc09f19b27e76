package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingGenerator_PreservesOrder(t *testing.T) {
	embedder := newStubEmbedder(4)
	gen := NewEmbeddingGenerator(embedder, discardLogger())

	chunks := []string{"first", "second", "third"}
	vectors, err := gen.EmbedDocuments(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, req := range embedder.requests {
		assert.Equal(t, chunks[i], req.Text)
		assert.Equal(t, TaskRetrievalDocument, req.TaskType)
		assert.Equal(t, float32(i), vectors[i][0])
	}
}

func TestEmbeddingGenerator_TitleIsFirstFiftyRunes(t *testing.T) {
	embedder := newStubEmbedder(2)
	gen := NewEmbeddingGenerator(embedder, discardLogger())

	long := strings.Repeat("あ", 80)
	_, err := gen.EmbedDocuments(context.Background(), []string{"short", long})
	require.NoError(t, err)

	assert.Equal(t, "short", embedder.requests[0].Title)
	assert.Equal(t, strings.Repeat("あ", 50), embedder.requests[1].Title)
}

func TestEmbeddingGenerator_AbortsOnFirstFailure(t *testing.T) {
	embedder := newStubEmbedder(2)
	embedder.failAt = 1
	gen := NewEmbeddingGenerator(embedder, discardLogger())

	vectors, err := gen.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Nil(t, vectors)
	// 失敗以降は呼び出さない
	assert.Len(t, embedder.requests, 2)
}

func TestEmbeddingGenerator_EmptyVectorIsFailure(t *testing.T) {
	embedder := newStubEmbedder(0)
	gen := NewEmbeddingGenerator(embedder, discardLogger())

	_, err := gen.EmbedDocuments(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestEmbeddingGenerator_NoChunks(t *testing.T) {
	embedder := newStubEmbedder(2)
	gen := NewEmbeddingGenerator(embedder, discardLogger())

	vectors, err := gen.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, embedder.requests)
}
