package chunk

import (
	"fmt"
)

const (
	// DefaultSize はチャンクの既定サイズ（文字数）
	DefaultSize = 2000
	// DefaultOverlap は隣接チャンク間の既定オーバーラップ（文字数）
	DefaultOverlap = 200
)

// Chunk は分割されたテキスト片を表します
type Chunk struct {
	Sequence int    // 0始まりの連番。保存順を決める
	Content  string // チャンクの内容
	Tokens   int    // トークン数（TokenCounter未設定時は0）
}

// TokenCounter はテキストのトークン数をカウントするインターフェース
type TokenCounter interface {
	CountTokens(text string) int
}

// DefaultChunker は固定サイズ・固定オーバーラップでテキストを分割します
type DefaultChunker struct {
	size    int
	overlap int
	counter TokenCounter
}

// Option は DefaultChunker のオプション設定
type Option func(*DefaultChunker)

// WithTokenCounter はチャンクごとのトークン数計測を有効にする
func WithTokenCounter(counter TokenCounter) Option {
	return func(c *DefaultChunker) {
		c.counter = counter
	}
}

// NewDefaultChunker は新しいDefaultChunkerを作成します
func NewDefaultChunker(size, overlap int, opts ...Option) (*DefaultChunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	c := &DefaultChunker{size: size, overlap: overlap}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Size はチャンクサイズを返します
func (c *DefaultChunker) Size() int { return c.size }

// Overlap はオーバーラップ幅を返します
func (c *DefaultChunker) Overlap() int { return c.overlap }

// Chunk はテキストを連番付きのチャンク列に分割します
func (c *DefaultChunker) Chunk(text string) []Chunk {
	parts := split([]rune(text), c.size, c.overlap)

	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{Sequence: i, Content: part}
		if c.counter != nil {
			chunks[i].Tokens = c.counter.CountTokens(part)
		}
	}
	return chunks
}

// Split はテキストを size 文字ごとに、overlap 文字ずつ重ねて分割します
//
// 出力は (text, size, overlap) のみに依存します。
// len(text) <= size の場合は text 全体を1チャンクとして返します。
func Split(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return split([]rune(text), size, overlap), nil
}

func split(runes []rune, size, overlap int) []string {
	length := len(runes)
	var chunks []string

	start := 0
	for start < length {
		end := min(start+size, length)
		chunks = append(chunks, string(runes[start:end]))
		if end == length {
			break
		}
		start = max(0, end-overlap)
	}
	return chunks
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be > 0 (got %d)", ErrInvalidConfig, size)
	}
	// overlap >= size だと開始位置が前進しない
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d) (got %d)", ErrInvalidConfig, size, overlap)
	}
	return nil
}
