package extract

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner は外部コマンドを実行して標準出力を返す
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// extractDOC は antiword で旧形式の Word 文書からテキストを取り出す
func (e *Extractor) extractDOC(ctx context.Context, path string) (string, error) {
	bin, err := e.lookPath(e.antiwordPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s is required to extract text from .doc files: %w",
			ErrExtractionUnavailable, e.antiwordPath, err)
	}

	out, err := e.runner.Run(ctx, bin, "-m", "UTF-8.txt", path)
	if err != nil {
		return "", fmt.Errorf("%w: antiword %s: %w", ErrExtraction, path, err)
	}
	return decodeLossy(out), nil
}
