package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Storage keeps uploaded files under bucket-relative paths.
type Storage interface {
	Upload(ctx context.Context, path string, data io.Reader, contentType string) error
	Download(ctx context.Context, path string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, path string) error
}

// ErrNotFound is returned by Download for a missing object.
var ErrNotFound = errors.New("object not found")

type SupabaseStorage struct {
	client *resty.Client
	bucket string
}

func NewSupabaseStorage(supabaseURL, serviceKey, bucket string) *SupabaseStorage {
	client := resty.New().
		SetBaseURL(strings.TrimRight(supabaseURL, "/")+"/storage/v1").
		SetAuthToken(serviceKey).
		SetTimeout(2 * time.Minute)
	return &SupabaseStorage{client: client, bucket: bucket}
}

func (s *SupabaseStorage) objectURL(p string) string {
	return fmt.Sprintf("/object/%s/%s", s.bucket, p)
}

func (s *SupabaseStorage) Upload(ctx context.Context, p string, data io.Reader, contentType string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Post(s.objectURL(p))
	if err != nil {
		return fmt.Errorf("upload file: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload failed (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *SupabaseStorage) Download(ctx context.Context, p string) (io.ReadCloser, string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(s.objectURL(p))
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	body := resp.RawBody()
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusBadRequest {
		body.Close()
		return nil, "", ErrNotFound
	}
	if resp.IsError() {
		body.Close()
		return nil, "", fmt.Errorf("download failed (%d)", resp.StatusCode())
	}
	return body, resp.Header().Get("Content-Type"), nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, p string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete(s.objectURL(p))
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("delete failed (%d)", resp.StatusCode())
	}
	return nil
}

// ObjectPath builds a fresh path for a file uploaded into folder, keeping
// the original extension.
func ObjectPath(folder, filename string) string {
	return path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

// ValidPath rejects empty, absolute and parent-relative paths.
func ValidPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "" {
			return false
		}
	}
	return true
}
