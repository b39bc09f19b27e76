package ingestion

import (
	"context"
	"fmt"
	"log/slog"
)

// TaskType はEmbeddingの用途（検索対象ドキュメント / 検索クエリ）
type TaskType string

const (
	TaskRetrievalDocument TaskType = "retrieval_document"
	TaskRetrievalQuery    TaskType = "retrieval_query"
)

// titleLength はEmbedding要求に付与するタイトルの最大文字数
const titleLength = 50

// EmbedRequest は1テキスト分のEmbedding要求
type EmbedRequest struct {
	Text     string
	TaskType TaskType
	Title    string
}

// Embedder はテキストをベクトル表現に変換するインターフェース
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, req EmbedRequest) ([]float32, error)

	// ModelName はモデル名を返す
	ModelName() string
}

// EmbeddingGenerator はチャンク列に対して順番にEmbeddingを生成する
type EmbeddingGenerator struct {
	embedder Embedder
	logger   *slog.Logger
}

// NewEmbeddingGenerator は新しい EmbeddingGenerator を作成する
func NewEmbeddingGenerator(embedder Embedder, logger *slog.Logger) *EmbeddingGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingGenerator{embedder: embedder, logger: logger}
}

// EmbedDocuments はチャンクごとに1回ずつEmbedderを呼び出し、同じ順序でベクトルを返す
//
// いずれかの呼び出しが失敗した時点で中断し、途中までの結果は返さない。
func (g *EmbeddingGenerator) EmbedDocuments(ctx context.Context, chunks []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(chunks))

	for i, text := range chunks {
		vector, err := g.embedder.Embed(ctx, EmbedRequest{
			Text:     text,
			TaskType: TaskRetrievalDocument,
			Title:    title(text),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d (model=%s): %w", ErrEmbedding, i, g.embedder.ModelName(), err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("%w: chunk %d (model=%s): empty vector returned", ErrEmbedding, i, g.embedder.ModelName())
		}
		embeddings = append(embeddings, vector)
	}

	g.logger.Debug("Embedding生成完了",
		"model", g.embedder.ModelName(),
		"count", len(embeddings),
	)

	return embeddings, nil
}

// title はチャンク先頭の titleLength 文字を返す
func title(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLength {
		return text
	}
	return string(runes[:titleLength])
}
