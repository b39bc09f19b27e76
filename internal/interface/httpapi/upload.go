package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/core/intake"
)

const (
	uploadField     = "file"
	internalMessage = "Internal server error"
	statusUploaded  = "Uploaded successfully"
)

type uploadResponse struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
	Path     string `json:"path"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// handleUpload はマルチパートの file フィールドをメモリに載せずに保存し、
// 処理対象の拡張子であればバックグラウンド処理に回す
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing form field '%s'", uploadField))
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		stored, err := s.intake.Accept(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			s.writeIntakeError(w, err)
			return
		}

		s.schedule(stored)

		writeJSON(w, http.StatusOK, uploadResponse{
			Filename: stored.OriginalName,
			Size:     formatMB(stored.Size),
			Path:     stored.Path,
			Status:   statusUploaded,
		})
		return
	}
}

// schedule は処理対象ならジョブを投入する。失敗してもアップロード自体は成功として扱う
func (s *Server) schedule(stored *intake.StoredFile) {
	if _, ok := s.processExts[stored.Extension]; !ok {
		s.logger.Debug("処理対象外の拡張子", "path", stored.Path, "ext", stored.Extension)
		return
	}

	job := ingestion.Job{Path: stored.Path, Source: stored.OriginalName}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("ジョブの投入に失敗", "path", stored.Path, "error", err)
		return
	}
	s.logger.Info("ジョブを投入", "path", stored.Path)
}

func (s *Server) writeIntakeError(w http.ResponseWriter, err error) {
	var ie *intake.Error
	switch {
	case errors.As(err, &ie) && (errors.Is(err, intake.ErrInvalidFileType) ||
		errors.Is(err, intake.ErrInvalidFileName) ||
		errors.Is(err, intake.ErrFileTooLarge)):
		writeError(w, http.StatusBadRequest, ie.Message)
	default:
		s.logger.Error("アップロードの保存に失敗", "error", err)
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}
