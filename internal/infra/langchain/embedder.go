package langchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/jinford/doc-rag/internal/core/ingestion"
)

// noAuthToken は認証不要なローカルのOpenAI互換サービス向けのトークン
const noAuthToken = "none"

// Embedder は OpenAI 互換の Embedding API（Ollama, LM Studio など）を langchaingo 経由で呼び出す
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

// Config は互換プロバイダの接続設定
type Config struct {
	BaseURL string
	Model   string
	Token   string
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(cfg Config, logger *slog.Logger) (*Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	token := cfg.Token
	if token == "" {
		token = noAuthToken
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai-compatible client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{
		embedder: embedder,
		model:    cfg.Model,
		logger:   logger.With("component", "compatible-embedder"),
	}, nil
}

// Embed は単一テキストの Embedding を生成する
func (e *Embedder) Embed(ctx context.Context, req ingestion.EmbedRequest) ([]float32, error) {
	e.logger.Debug("Embeddingを生成", "length", len(req.Text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{req.Text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}
	return vectors[0], nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// インターフェース実装の確認
var _ ingestion.Embedder = (*Embedder)(nil)
