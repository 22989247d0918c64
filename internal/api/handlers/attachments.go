package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
)

type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, string, error)
}

type AttachmentHandler struct {
	files Opener
}

func NewAttachmentHandler(files Opener) *AttachmentHandler {
	return &AttachmentHandler{files: files}
}

// Serve streams the stored file named by ?filePath=.
func (h *AttachmentHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("filePath")
	body, contentType, err := h.files.Open(r.Context(), path)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("attachment stream interrupted", "path", path, "error", err)
	}
}
