package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource はページ単位でテキストを取り出せるPDF
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfReader struct {
	r *pdf.Reader
}

func (p pdfReader) NumPage() int {
	return p.r.NumPage()
}

// PageText は 1 始まりのページ番号でテキストを返す
func (p pdfReader) PageText(i int) (text string, err error) {
	// 壊れたコンテンツストリームで panic することがある
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()

	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (e *Extractor) extractPDF(_ context.Context, path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: open pdf %s: %v", ErrExtraction, path, rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %w", ErrExtraction, path, err)
	}
	defer f.Close()

	return joinPages(pdfReader{r: r}, e.logger.With("path", path)), nil
}

// joinPages は各ページのテキストを改行で連結する。抽出できないページは空文字として扱う
func joinPages(src pageSource, logger *slog.Logger) string {
	n := src.NumPage()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := src.PageText(i)
		if err != nil {
			logger.Warn("ページのテキスト抽出に失敗", "page", i, "error", err)
			text = ""
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}
