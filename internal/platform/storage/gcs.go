// Package storage wraps Google Cloud Storage for attachment objects.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// Store uploads objects into a single bucket and resolves public URLs.
type Store struct {
	client *gcs.Client
	bucket string
}

// New creates a Store and ensures the bucket exists.
func New(ctx context.Context, bucket, projectID string) (*Store, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform/storage: new client: %w", err)
	}
	s := &Store{client: client, bucket: bucket}
	if err := s.ensureBucket(ctx, projectID); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// ensureBucket creates the bucket when missing. Creation races resolve to the
// existing bucket, so a conflict response is not an error.
func (s *Store) ensureBucket(ctx context.Context, projectID string) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("platform/storage: bucket attrs: %w", err)
	}
	if err := s.client.Bucket(s.bucket).Create(ctx, projectID, nil); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 409 {
			return nil
		}
		return fmt.Errorf("platform/storage: create bucket: %w", err)
	}
	return nil
}

// Upload writes an object at the given path and returns its public URL.
func (s *Store) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(path)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("platform/storage: upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("platform/storage: close writer %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

// PublicURL returns the canonical public URL for an object path.
func (s *Store) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
