package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"optemus/internal/domain"
)

// casAttempts bounds how often an index update is replayed after losing a
// conditional-write race.
const casAttempts = 3

// s3API is the slice of the S3 client the blob store needs. Narrowed for
// test doubles.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStoreOptions configures the S3-backed blob store.
type BlobStoreOptions struct {
	Client        s3API
	Bucket        string
	Region        string
	Prefix        string
	IndexKey      string
	PublicBaseURL string
}

// BlobStore uploads images to an S3-compatible object store. The store's
// native listing needs elevated credentials the display path does not have,
// so record metadata lives in a manually managed JSON index object. Index
// updates are read-modify-write guarded by ETag conditional puts; losing
// writers re-read and replay instead of clobbering each other.
type BlobStore struct {
	client        s3API
	bucket        string
	region        string
	prefix        string
	indexKey      string
	publicBaseURL string
}

// blobIndex is the persisted shape of the metadata index object.
type blobIndex struct {
	Images []blobIndexEntry `json:"images"`
}

type blobIndexEntry struct {
	ID        string               `json:"id"`
	Prompt    string               `json:"prompt"`
	URL       string               `json:"url"`
	Filename  string               `json:"filename"`
	CreatedAt string               `json:"createdAt"`
	Settings  domain.ImageSettings `json:"settings"`
}

// NewBlobStore builds a BlobStore over the provided client.
func NewBlobStore(opts BlobStoreOptions) (*BlobStore, error) {
	if opts.Client == nil {
		return nil, errors.New("storage: s3 client is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = "generated-images"
	}
	indexKey := strings.TrimSpace(opts.IndexKey)
	if indexKey == "" {
		indexKey = "data/images-metadata.json"
	}
	return &BlobStore{
		client:        opts.Client,
		bucket:        opts.Bucket,
		region:        opts.Region,
		prefix:        prefix,
		indexKey:      indexKey,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}, nil
}

func (s *BlobStore) Name() string { return BackendBlob }

// Persist uploads the image object, then appends a record to the metadata
// index. A failed index update after a successful upload is reported as a
// storage write error; the object itself stays in place.
func (s *BlobStore) Persist(ctx context.Context, req PersistRequest) (domain.StoredImageRecord, error) {
	cleanKey, err := sanitizeKey(req.Filename)
	if err != nil {
		return domain.StoredImageRecord{}, err
	}

	url := req.SourceURL
	if len(req.Data) > 0 {
		objectKey := s.prefix + "/" + cleanKey
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(req.Data),
			ContentType: aws.String(contentTypeFor(cleanKey)),
		})
		if err != nil {
			return domain.StoredImageRecord{}, fmt.Errorf("%w: upload object: %v", domain.ErrStorageWrite, err)
		}
		url = s.objectURL(objectKey)
	}
	if url == "" {
		return domain.StoredImageRecord{}, fmt.Errorf("%w: no payload", domain.ErrStorageWrite)
	}

	entry := blobIndexEntry{
		ID:        baseName(cleanKey),
		Prompt:    req.Prompt,
		URL:       url,
		Filename:  cleanKey,
		CreatedAt: req.CreatedAt.UTC().Format(time.RFC3339),
		Settings:  req.Settings,
	}
	if err := s.updateIndex(ctx, func(idx *blobIndex) {
		idx.Images = append(idx.Images, entry)
	}); err != nil {
		return domain.StoredImageRecord{}, err
	}

	return domain.StoredImageRecord{
		ID:        entry.ID,
		Filename:  cleanKey,
		Prompt:    req.Prompt,
		URL:       url,
		CreatedAt: req.CreatedAt.UTC(),
		Settings:  req.Settings,
		Storage:   domain.StorageFlags{Blob: true},
	}, nil
}

// List returns the records recorded in the metadata index. A missing index
// yields an empty slice: the bucket may still hold objects the index never
// learned about.
func (s *BlobStore) List(ctx context.Context) ([]domain.StoredImageRecord, error) {
	idx, _, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.StoredImageRecord, 0, len(idx.Images))
	for _, e := range idx.Images {
		rec := domain.StoredImageRecord{
			ID:       e.ID,
			Filename: e.Filename,
			Prompt:   e.Prompt,
			URL:      e.URL,
			Settings: e.Settings,
			Storage:  domain.StorageFlags{Blob: true},
		}
		if ts, err := parseMetadataTimestamp(e.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the image object and drops its index entry.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	cleanID, err := sanitizeKey(id)
	if err != nil {
		return err
	}

	var filename string
	err = s.updateIndex(ctx, func(idx *blobIndex) {
		// the closure reruns on CAS retries
		filename = ""
		kept := idx.Images[:0]
		for _, e := range idx.Images {
			if e.ID == cleanID {
				filename = e.Filename
				continue
			}
			kept = append(kept, e)
		}
		idx.Images = kept
	})
	if err != nil {
		return err
	}
	if filename == "" {
		return domain.ErrNotFound
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + "/" + filename),
	})
	if err != nil {
		return fmt.Errorf("%w: delete object: %v", domain.ErrStorageWrite, err)
	}
	return nil
}

// readIndex fetches the index object and its ETag. A missing object is an
// empty index with no ETag.
func (s *BlobStore) readIndex(ctx context.Context) (blobIndex, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.indexKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return blobIndex{}, "", nil
		}
		return blobIndex{}, "", fmt.Errorf("%w: read index: %v", domain.ErrStorageList, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return blobIndex{}, "", fmt.Errorf("%w: read index body: %v", domain.ErrStorageList, err)
	}
	var idx blobIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return blobIndex{}, "", fmt.Errorf("%w: decode index: %v", domain.ErrStorageList, err)
	}
	return idx, aws.ToString(out.ETag), nil
}

// updateIndex applies mutate under optimistic concurrency. The ETag captured
// on read is replayed as If-Match on write; a new index is created with
// If-None-Match so two first writers cannot both win.
func (s *BlobStore) updateIndex(ctx context.Context, mutate func(*blobIndex)) error {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		idx, etag, err := s.readIndex(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
		}
		mutate(&idx)

		raw, err := json.MarshalIndent(idx, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: encode index: %v", domain.ErrStorageWrite, err)
		}
		put := &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.indexKey),
			Body:        bytes.NewReader(raw),
			ContentType: aws.String("application/json"),
		}
		if etag != "" {
			put.IfMatch = aws.String(etag)
		} else {
			put.IfNoneMatch = aws.String("*")
		}
		if _, err = s.client.PutObject(ctx, put); err == nil {
			return nil
		} else if isPreconditionFailed(err) {
			lastErr = err
			continue
		} else {
			return fmt.Errorf("%w: write index: %v", domain.ErrStorageWrite, err)
		}
	}
	return fmt.Errorf("%w: index contention: %v", domain.ErrStorageWrite, lastErr)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "PreconditionFailed" || code == "ConditionalRequestConflict"
	}
	return false
}

func (s *BlobStore) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(filename, ".svg"):
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

var _ Backend = (*BlobStore)(nil)
