package ingestion

import (
	"context"

	"github.com/google/uuid"
)

// Status はパイプライン実行結果の種別
type Status string

const (
	StatusProcessed       Status = "processed"
	StatusNoTextExtracted Status = "no_text_extracted"
)

// Result はパイプライン1回分の実行結果
type Result struct {
	Status Status `json:"status"`
	Chunks int    `json:"chunks"`
}

// Job はバックグラウンド処理の単位（保存済みファイル1件）
type Job struct {
	Path   string // 保存先パス
	Source string // 元のファイル名（メタデータ用）
}

// Record はベクトルストアへ書き込む1件分のデータ
type Record struct {
	ID        uuid.UUID
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// メタデータのキー
const (
	MetadataChunkSequence = "chunk_sequence"
	MetadataContent       = "content"
	MetadataEmbedding     = "embedding"
	MetadataSource        = "source"
)

// TextExtractor は保存済みファイルからプレーンテキストを取り出すインターフェース
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// VectorStore はベクトル検索可能なストアへの書き込み口
// テスト時のモック用に消費者側で定義
type VectorStore interface {
	// AddDocuments はレコードをまとめて書き込み、生成されたIDを返す
	AddDocuments(ctx context.Context, records []Record) ([]string, error)
}
