package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jinford/doc-rag/internal/core/ingestion"
)

// DefaultAntiwordPath は .doc 抽出に使うコマンド名
const DefaultAntiwordPath = "antiword"

var _ ingestion.TextExtractor = (*Extractor)(nil)

type extractFunc func(ctx context.Context, path string) (string, error)

// Extractor は拡張子ごとの抽出処理を振り分ける
type Extractor struct {
	strategies   map[string]extractFunc
	runner       CommandRunner
	lookPath     func(string) (string, error)
	antiwordPath string
	logger       *slog.Logger
}

// Option は Extractor のオプション設定
type Option func(*Extractor)

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCommandRunner は外部コマンドの実行方法を差し替える
func WithCommandRunner(runner CommandRunner) Option {
	return func(e *Extractor) {
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithAntiwordPath は antiword のパスを設定する
func WithAntiwordPath(path string) Option {
	return func(e *Extractor) {
		if path != "" {
			e.antiwordPath = path
		}
	}
}

func withLookPath(fn func(string) (string, error)) Option {
	return func(e *Extractor) {
		e.lookPath = fn
	}
}

// New は新しい Extractor を作成する
func New(opts ...Option) *Extractor {
	e := &Extractor{
		runner:       execRunner{},
		lookPath:     exec.LookPath,
		antiwordPath: DefaultAntiwordPath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.strategies = map[string]extractFunc{
		".pdf":  e.extractPDF,
		".docx": e.extractDOCX,
		".doc":  e.extractDOC,
		".txt":  e.extractTXT,
	}
	return e
}

// Extract はファイルの拡張子に応じてテキストを抽出する
//
// 対応していない拡張子はバイト列をUTF-8として読み込む。
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := e.strategies[ext]
	if !ok {
		fn = e.extractGeneric
	}

	text, err := fn(ctx, path)
	if err != nil {
		return "", err
	}

	e.logger.Debug("テキストを抽出", "path", path, "ext", ext, "length", len(text))
	return text, nil
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrExtraction, path, err)
	}
	return raw, nil
}
