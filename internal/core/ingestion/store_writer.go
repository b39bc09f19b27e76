package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// StoreWriter はチャンクとEmbeddingを検証し、1バッチでベクトルストアに書き込む
type StoreWriter struct {
	store  VectorStore
	logger *slog.Logger
}

// NewStoreWriter は新しい StoreWriter を作成する
func NewStoreWriter(store VectorStore, logger *slog.Logger) *StoreWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreWriter{store: store, logger: logger}
}

// StoreEmbeddings はチャンクとEmbeddingを位置で対応付けて保存し、保存件数を返す
//
// 最初のベクトルの次元をバッチの期待次元とし、異なる次元が1つでもあれば
// 何も書き込まずに DimensionMismatchError を返す。
func (w *StoreWriter) StoreEmbeddings(ctx context.Context, source string, chunks []string, embeddings [][]float32) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, fmt.Errorf("%w: %d chunks but %d embeddings", ErrStorage, len(chunks), len(embeddings))
	}

	records := make([]Record, 0, len(chunks))
	expected := -1

	for i, content := range chunks {
		embedding := embeddings[i]
		if expected < 0 {
			expected = len(embedding)
		}
		if len(embedding) != expected {
			return 0, &DimensionMismatchError{Index: i, Expected: expected, Got: len(embedding)}
		}

		vector := canonicalize(embedding)
		metadata := map[string]any{
			MetadataContent:       content,
			MetadataEmbedding:     vector,
			MetadataChunkSequence: i,
		}
		if source != "" {
			metadata[MetadataSource] = source
		}

		records = append(records, Record{
			ID:        uuid.New(),
			Content:   content,
			Embedding: vector,
			Metadata:  metadata,
		})
	}

	w.logger.Info("ベクトルストアへの書き込みを開始", "source", source, "records", len(records))

	if len(records) == 0 {
		w.logger.Info("書き込むレコードがありません", "source", source)
		return 0, nil
	}

	ids, err := w.store.AddDocuments(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	w.logger.Info("ベクトルストアへの書き込み完了", "source", source, "stored", len(ids))

	return len(ids), nil
}

// canonicalize は呼び出し元のスライスと共有しない float32 のコピーを返す
func canonicalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
