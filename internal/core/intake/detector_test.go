package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	d := NewContentTypeDetector()

	tests := []struct {
		name string
		path string
		head []byte
		want string
	}{
		{"pdf", "report.pdf", []byte("%PDF-1.7"), "application/pdf"},
		{"docx", "memo.DOCX", []byte("PK\x03\x04"), "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"doc", "old.doc", []byte{0xD0, 0xCF, 0x11, 0xE0}, "application/msword"},
		{"テキスト", "notes.txt", []byte("hello world"), "text/plain"},
		{"空", "empty.txt", nil, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.DetectContentType(tt.path, tt.head))
		})
	}
}
