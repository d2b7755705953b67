// Package storage provides the pluggable persistence targets for generated
// images: local filesystem, S3-compatible blob store, and a Notion-style
// document database.
package storage

import (
	"context"
	"time"

	"optemus/internal/domain"
)

// Backend names, also used as config values and storage flags.
const (
	BackendLocal = "local"
	BackendBlob  = "blob"
	BackendDocDB = "docdb"
)

// PersistRequest carries one generated image plus its metadata into a
// backend. Data holds the image bytes when available; SourceURL is the
// provider-hosted location otherwise.
type PersistRequest struct {
	Data      []byte
	SourceURL string
	Filename  string
	Prompt    string
	Settings  domain.ImageSettings
	CreatedAt time.Time
}

// Backend persists and lists stored images. Persist creates a new record on
// every call; no idempotence key exists. List may legitimately return an
// empty slice when the backend cannot enumerate its contents, so callers must
// treat empty as "possibly incomplete" rather than "definitely empty".
type Backend interface {
	Name() string
	Persist(ctx context.Context, req PersistRequest) (domain.StoredImageRecord, error)
	List(ctx context.Context) ([]domain.StoredImageRecord, error)
	Delete(ctx context.Context, id string) error
}
