package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
	"github.com/nikhilbhutani/staffdesk/internal/storage"
)

var allowedTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Upload is a file received in a multipart request.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type Remover interface {
	EnqueueAttachmentDelete(ctx context.Context, p queue.AttachmentDeletePayload) error
}

type Service struct {
	store    storage.Storage
	queue    Remover
	maxBytes int64
}

func NewService(store storage.Storage, q Remover, maxBytes int64) *Service {
	return &Service{store: store, queue: q, maxBytes: maxBytes}
}

// Save stores up under folder and returns its path. The content type is
// sniffed from the bytes, not taken from the client.
func (s *Service) Save(ctx context.Context, folder string, up *Upload) (string, error) {
	if up == nil || up.Reader == nil {
		return "", nil
	}
	if s.maxBytes > 0 && up.Size > s.maxBytes {
		return "", apperr.ErrInvalidFile.WithDetail("file too large")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(up.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", apperr.ErrInvalidFile.Wrap(err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !allowedTypes[contentType] {
		return "", apperr.ErrInvalidFile.WithDetail(contentType)
	}

	path := storage.ObjectPath(folder, up.Filename)
	if err := s.store.Upload(ctx, path, io.MultiReader(bytes.NewReader(head), up.Reader), contentType); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return path, nil
}

func (s *Service) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	if !storage.ValidPath(path) {
		return nil, "", apperr.ErrAttachmentNotFound
	}
	body, contentType, err := s.store.Download(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", apperr.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open attachment: %w", err)
	}
	return body, contentType, nil
}

// Discard schedules removal of a file that is no longer referenced.
func (s *Service) Discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if s.queue != nil {
		err := s.queue.EnqueueAttachmentDelete(ctx, queue.AttachmentDeletePayload{Path: path})
		if err == nil {
			return
		}
		slog.Warn("enqueue attachment delete failed, deleting inline", "path", path, "error", err)
	}
	if err := s.Delete(ctx, path); err != nil {
		slog.Error("attachment delete failed", "path", path, "error", err)
	}
}

func (s *Service) Delete(ctx context.Context, path string) error {
	if !storage.ValidPath(path) {
		return nil
	}
	return s.store.Delete(ctx, path)
}
