package extract

import (
	"context"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// extractTXT は UTF-8（BOM付きも可）として読み、不正なバイト列なら Latin-1 とみなす
func (e *Extractor) extractTXT(_ context.Context, path string) (string, error) {
	raw, err := readFile(path)
	if err != nil {
		return "", err
	}

	text, encoding := decodeText(raw)
	e.logger.Debug("テキストをデコード", "path", path, "encoding", encoding)
	return text, nil
}

func (e *Extractor) extractGeneric(_ context.Context, path string) (string, error) {
	raw, err := readFile(path)
	if err != nil {
		return "", err
	}

	if len(raw) > 0 && enry.IsBinary(raw) {
		e.logger.Warn("バイナリの可能性があるファイルをテキストとして読み込みます", "path", path)
	}
	return decodeLossy(raw), nil
}

func decodeText(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		if out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw); err == nil {
			return string(out), "utf-8"
		}
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(out), "latin-1"
	}
	return decodeLossy(raw), "utf-8-lossy"
}

// decodeLossy は不正なバイト列を U+FFFD に置き換えてデコードする
func decodeLossy(raw []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return string([]rune(string(raw)))
	}
	return string(out)
}
