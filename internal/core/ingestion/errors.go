package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbedding はEmbedding生成に失敗した場合に返されます
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrDimensionMismatch はバッチ内でEmbeddingの次元が揃っていない場合に返されます
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStorage はベクトルストアへの書き込みに失敗した場合に返されます
	ErrStorage = errors.New("vector store write failed")

	// ErrQueueFull はバックグラウンドキューが満杯の場合に返されます
	ErrQueueFull = errors.New("ingestion queue is full")

	// ErrDispatcherClosed は停止済みの Dispatcher にジョブを投入した場合に返されます
	ErrDispatcherClosed = errors.New("dispatcher is closed")
)

// DimensionMismatchError は次元不一致のチャンク位置と次元数を保持します
type DimensionMismatchError struct {
	Index    int
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: chunk %d has dimension %d, expected %d", ErrDimensionMismatch, e.Index, e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
