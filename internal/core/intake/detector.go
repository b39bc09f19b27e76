package intake

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// ContentTypeDetector はファイル名と先頭バイトからMIMEタイプを判定する。
type ContentTypeDetector struct{}

// NewContentTypeDetector は ContentTypeDetector を生成する。
func NewContentTypeDetector() *ContentTypeDetector {
	return &ContentTypeDetector{}
}

// DetectContentType はファイルパスと内容からMIMEタイプを判定する。
func (d *ContentTypeDetector) DetectContentType(path string, head []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	}

	if len(head) > 0 && !enry.IsBinary(head) {
		language := enry.GetLanguage(filepath.Base(path), head)
		if mime := languageToMimeType(language); mime != "" {
			return mime
		}
	}

	if len(head) > 0 {
		detected := http.DetectContentType(head)
		if idx := strings.Index(detected, ";"); idx != -1 {
			detected = detected[:idx]
		}
		return strings.TrimSpace(detected)
	}

	return "text/plain"
}

func languageToMimeType(language string) string {
	mapping := map[string]string{
		"Markdown": "text/markdown",
		"HTML":     "text/html",
		"JSON":     "application/json",
		"YAML":     "text/x-yaml",
		"XML":      "text/xml",
		"CSV":      "text/csv",
		"Text":     "text/plain",
	}
	if mime, ok := mapping[language]; ok {
		return mime
	}
	return ""
}
