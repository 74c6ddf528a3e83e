package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage persists report attachments
type Storage interface {
	// Save stores body under a new unique key derived from filename
	Save(ctx context.Context, filename string, body io.Reader, contentType string, size int64) (*Object, error)
	// Open returns the content of a stored object
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored object; missing objects are not an error
	Delete(ctx context.Context, key string) error
}

// Object describes a stored attachment
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// GenerateKey creates a unique storage key keeping the original extension
func GenerateKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}
