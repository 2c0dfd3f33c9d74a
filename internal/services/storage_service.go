package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// AvatarStorage keeps public profile pictures.
type AvatarStorage interface {
	Upload(ctx context.Context, objectPath string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type SupabaseStorage struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorage(baseURL, bucket, serviceKey string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, objectPath string, content []byte, contentType string) (string, error) {
	objectPath = strings.Trim(path.Clean("/"+objectPath), "/")
	endpoint := s.objectURL(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Cache-Control", "max-age=3600")

	if err := s.do(req, "upload avatar"); err != nil {
		return "", err
	}
	return s.publicURL(objectPath), nil
}

// Delete is a no-op for URLs outside the bucket and for objects already gone.
func (s *SupabaseStorage) Delete(ctx context.Context, publicURL string) error {
	objectPath, ok := s.objectPath(publicURL)
	if !ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(objectPath), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	err = s.do(req, "delete avatar")
	var statusErr *storageStatusError
	if errors.As(err, &statusErr) && statusErr.status == http.StatusNotFound {
		return nil
	}
	return err
}

type storageStatusError struct {
	op     string
	status int
	body   string
}

func (e *storageStatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.op, e.status, e.body)
}

func (s *SupabaseStorage) do(req *http.Request, op string) error {
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &storageStatusError{op: op, status: resp.StatusCode, body: strings.TrimSpace(string(body))}
}

func (s *SupabaseStorage) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorage) publicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorage) objectPath(publicURL string) (string, bool) {
	parsed, err := url.Parse(publicURL)
	if err != nil || !strings.HasPrefix(publicURL, s.baseURL) {
		return "", false
	}
	for _, prefix := range []string{
		"/storage/v1/object/public/" + s.bucket + "/",
		"/storage/v1/object/" + s.bucket + "/",
	} {
		if strings.HasPrefix(parsed.Path, prefix) {
			return strings.TrimPrefix(parsed.Path, prefix), true
		}
	}
	return "", false
}
