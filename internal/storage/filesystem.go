package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"optemus/internal/domain"
)

// imageExtensions are the file types the listing considers part of the
// gallery.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// fileMetadata is the sibling JSON document written next to each image. URL
// is set only for records persisted without bytes; it points at the remote
// copy.
type fileMetadata struct {
	Prompt    string               `json:"prompt"`
	Timestamp string               `json:"timestamp"`
	Settings  domain.ImageSettings `json:"settings"`
	Filename  string               `json:"filename"`
	URL       string               `json:"url,omitempty"`
}

// FileStore persists images onto the local filesystem, one raw image file
// plus a sibling <base>.json metadata document. It is the only backend that
// can truly enumerate everything it stored.
type FileStore struct {
	basePath string
	baseURL  string
}

// NewFileStore initializes a FileStore rooted at basePath. baseURL is the
// public prefix under which the directory is served.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStore) Name() string { return BackendLocal }

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Persist writes the image bytes and a sibling metadata file. When the
// payload is a remote URL with no bytes, only a metadata document is
// written, carrying the URL; List surfaces such documents as URL-only
// records.
func (s *FileStore) Persist(ctx context.Context, req PersistRequest) (domain.StoredImageRecord, error) {
	if s == nil {
		return domain.StoredImageRecord{}, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return domain.StoredImageRecord{}, err
	}
	cleanKey, err := sanitizeKey(req.Filename)
	if err != nil {
		return domain.StoredImageRecord{}, err
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if len(req.Data) > 0 {
		if err := os.WriteFile(fullPath, req.Data, 0o644); err != nil {
			return domain.StoredImageRecord{}, fmt.Errorf("%w: write image: %v", domain.ErrStorageWrite, err)
		}
	}

	meta := fileMetadata{
		Prompt:    req.Prompt,
		Timestamp: req.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Settings:  req.Settings,
		Filename:  cleanKey,
	}
	if len(req.Data) == 0 {
		if req.SourceURL == "" {
			return domain.StoredImageRecord{}, fmt.Errorf("%w: no payload", domain.ErrStorageWrite)
		}
		meta.URL = req.SourceURL
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return domain.StoredImageRecord{}, fmt.Errorf("%w: encode metadata: %v", domain.ErrStorageWrite, err)
	}
	if err := os.WriteFile(s.metadataPath(cleanKey), raw, 0o644); err != nil {
		return domain.StoredImageRecord{}, fmt.Errorf("%w: write metadata: %v", domain.ErrStorageWrite, err)
	}

	url := req.SourceURL
	if len(req.Data) > 0 {
		url = s.publicURL(cleanKey)
	}
	return domain.StoredImageRecord{
		ID:        baseName(cleanKey),
		Filename:  cleanKey,
		Prompt:    req.Prompt,
		URL:       url,
		CreatedAt: req.CreatedAt.UTC(),
		Settings:  req.Settings,
		Storage:   domain.StorageFlags{Local: len(req.Data) > 0},
	}, nil
}

// List walks the directory and pairs image files with their metadata by
// basename. Images with no metadata document still appear; their prompt is
// guessed from the filename when it carries one. Metadata documents with no
// sibling image are surfaced as URL-only records.
func (s *FileStore) List(ctx context.Context) ([]domain.StoredImageRecord, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory: %v", domain.ErrStorageList, err)
	}

	var records []domain.StoredImageRecord
	seen := map[string]bool{}
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		seen[baseName(entry.Name())] = true
		rec := domain.StoredImageRecord{
			ID:       baseName(entry.Name()),
			Filename: entry.Name(),
			URL:      s.publicURL(entry.Name()),
			Prompt:   promptFromFilename(entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			rec.ModTime = info.ModTime()
		}
		if meta, ok := s.readMetadata(entry.Name()); ok {
			if meta.Prompt != "" {
				rec.Prompt = meta.Prompt
			}
			rec.Settings = meta.Settings
			if ts, err := parseMetadataTimestamp(meta.Timestamp); err == nil {
				rec.CreatedAt = ts
			}
		}
		rec.Storage = domain.StorageFlags{Local: true}
		records = append(records, rec)
	}

	// Orphan metadata documents hold records whose bytes live remotely.
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".json" {
			continue
		}
		base := baseName(entry.Name())
		if seen[base] {
			continue
		}
		meta, ok := s.readMetadata(base + ".png")
		if !ok || meta.URL == "" {
			continue
		}
		rec := domain.StoredImageRecord{
			ID:       base,
			Filename: meta.Filename,
			Prompt:   meta.Prompt,
			URL:      meta.URL,
			Settings: meta.Settings,
		}
		if rec.Filename == "" {
			rec.Filename = base + ".png"
		}
		if info, err := entry.Info(); err == nil {
			rec.ModTime = info.ModTime()
		}
		if ts, err := parseMetadataTimestamp(meta.Timestamp); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the image file (trying each known extension) and its
// metadata document. Removing only the metadata still counts: URL-only
// records have no image file to remove.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cleanID, err := sanitizeKey(id)
	if err != nil {
		return err
	}

	deleted := false
	for ext := range imageExtensions {
		path := filepath.Join(s.basePath, cleanID+ext)
		if err := os.Remove(path); err == nil {
			deleted = true
		}
	}
	if err := os.Remove(s.metadataPath(cleanID + ".png")); err == nil {
		deleted = true
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FileStore) readMetadata(filename string) (fileMetadata, bool) {
	raw, err := os.ReadFile(s.metadataPath(filename))
	if err != nil {
		return fileMetadata{}, false
	}
	var meta fileMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fileMetadata{}, false
	}
	return meta, true
}

func (s *FileStore) metadataPath(filename string) string {
	return filepath.Join(s.basePath, baseName(filename)+".json")
}

func (s *FileStore) publicURL(filename string) string {
	if s.baseURL == "" {
		return "/images/" + filename
	}
	return s.baseURL + "/" + filename
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// promptFromFilename recovers a display prompt for images saved without
// metadata. Slug-prefixed filenames carry a usable fragment before the first
// underscore.
func promptFromFilename(filename string) string {
	if !strings.Contains(filename, "_") {
		return "No prompt available"
	}
	candidate := strings.ReplaceAll(strings.SplitN(filename, "_", 2)[0], "-", " ")
	if len(candidate) > 5 {
		return candidate
	}
	return "No prompt available"
}

func parseMetadataTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("storage: unparseable timestamp %q", s)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ Backend = (*FileStore)(nil)
