package uploads

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"journal-backend/internal/shared/storage/object"
)

var ErrInvalidInput = errors.New("invalid input")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Service saves entry images to object storage.
type Service struct {
	Store object.ObjectStore
}

// Upload stores an image and returns its storage key.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (string, error) {
	if fileName == "" {
		return "", ErrInvalidInput
	}
	ext := strings.ToLower(path.Ext(fileName))
	if !allowedExtensions[ext] {
		return "", ErrInvalidInput
	}

	key, _, _, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return "", err
	}
	return key, nil
}

// Open streams a stored image back to the caller.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrInvalidInput
	}
	return s.Store.Open(ctx, key)
}
