package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jinford/doc-rag/internal/core/ingestion"
)

// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
const DefaultEmbeddingModel = "models/embedding-001"

// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
var ErrAPIKeyNotSet = errors.New("Google API key not set: please set GOOGLE_API_KEY environment variable")

// Embedder は Gemini の Embedding API を使用してテキストをベクトルに変換する
type Embedder struct {
	client *genai.Client
	model  string
}

type embedderOptions struct {
	model    string
	endpoint string
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithEmbeddingModel はモデル名を上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithEndpoint は API のベースURLを上書きする
func WithEndpoint(endpoint string) EmbedderOption {
	return func(o *embedderOptions) {
		o.endpoint = endpoint
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(ctx context.Context, apiKey string, opts ...EmbedderOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	options := embedderOptions{model: DefaultEmbeddingModel}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if options.endpoint != "" {
		cfg.HTTPOptions.BaseURL = options.endpoint
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  normalizeModel(options.model),
	}, nil
}

// Embed は単一テキストの Embedding を生成する
func (e *Embedder) Embed(ctx context.Context, req ingestion.EmbedRequest) ([]float32, error) {
	config := &genai.EmbedContentConfig{TaskType: taskType(req.TaskType)}
	// title は RETRIEVAL_DOCUMENT の場合のみ指定できる
	if req.TaskType == ingestion.TaskRetrievalDocument {
		config.Title = req.Title
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(req.Text), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}

	return append([]float32(nil), resp.Embeddings[0].Values...), nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

func normalizeModel(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func taskType(t ingestion.TaskType) string {
	return strings.ToUpper(string(t))
}

// インターフェース実装の確認
var _ ingestion.Embedder = (*Embedder)(nil)
