package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists binary payloads and hands back a publicly fetchable URL.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, path string) ([]byte, string, error)
	Delete(ctx context.Context, path string) error
}

// LocalBlobStore writes blobs under a base directory and builds public URLs
// from signed tokens so media can be served without exposing raw paths.
type LocalBlobStore struct {
	baseDir       string
	publicBaseURL string
	signer        *SignedURLSigner
}

// NewLocalBlobStore ensures the base directory exists and returns a handle.
func NewLocalBlobStore(baseDir, publicBaseURL string, signer *SignedURLSigner) (*LocalBlobStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalBlobStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		signer:        signer,
	}, nil
}

// Upload stores the payload and returns its public URL.
func (s *LocalBlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("blob path required")
	}
	target := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	token, _, err := s.signer.Generate(contentType, path)
	if err != nil {
		return "", fmt.Errorf("sign media url: %w", err)
	}
	return s.publicBaseURL + "/" + token, nil
}

// Open reads a stored blob back along with its content type (inferred from the
// file extension when the token does not carry one).
func (s *LocalBlobStore) Open(ctx context.Context, path string) ([]byte, string, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return nil, "", fmt.Errorf("open media file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Delete removes a stored blob if present.
func (s *LocalBlobStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

// Signer exposes the token signer so handlers can validate media tokens.
func (s *LocalBlobStore) Signer() *SignedURLSigner {
	return s.signer
}

func (s *LocalBlobStore) resolve(path string) string {
	clean := filepath.Clean("/" + path)
	return filepath.Join(s.baseDir, clean)
}
