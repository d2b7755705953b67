// Package generate coordinates one image-generation request end to end:
// validation, per-variant prompt enhancement and provider calls, and
// best-effort persistence across the configured storage backends.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"optemus/internal/domain"
	"optemus/internal/imagegen"
	"optemus/internal/prompt"
	"optemus/internal/storage"
)

// GeneratedImage is one successful variant in the orchestrator's response.
type GeneratedImage struct {
	// Image is the payload handed back to the client: a data URL for
	// inline bytes, or the canonical remote URL.
	Image    string
	Filename string
	Record   domain.StoredImageRecord
}

// Result is the outcome of a generation request with at least one success.
type Result struct {
	Images []GeneratedImage
	Count  int
}

// Orchestrator drives the generation pipeline. Variants run strictly
// sequentially: the upstream API is rate limited and variant 0's failure
// must abort before any later work starts.
type Orchestrator struct {
	generator imagegen.Generator
	backends  []storage.Backend
	fetcher   *Fetcher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. backends may be empty, in which case
// generated images are returned without persistence.
func NewOrchestrator(generator imagegen.Generator, backends []storage.Backend, fetcher *Fetcher, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		backends:  backends,
		fetcher:   fetcher,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle runs one generation request. Failure of the first variant fails the
// whole request; later variants are skipped on failure and the successful
// subset is returned. Zero successes is a failure distinct from partial
// success.
func (o *Orchestrator) Handle(ctx context.Context, req domain.GenerationRequest) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o.logger.Info().
		Int("count", req.Count).
		Str("size", req.Size).
		Str("quality", req.Quality).
		Msg("generating images")

	settings := domain.SettingsFromRequest(req)
	result := &Result{}

	for i := 0; i < req.Count; i++ {
		enhanced := prompt.Enhance(req.Prompt, req.StyleType, req.StylePreset, i, req.Count)

		img, err := o.generator.Generate(ctx, enhanced, req.Size, req.Quality)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			o.logger.Warn().Err(err).Int("variant", i).Msg("variant generation failed, skipping")
			continue
		}

		variant := domain.GeneratedVariant{
			Index:          i,
			Data:           img.Data,
			URL:            img.URL,
			EnhancedPrompt: enhanced,
		}
		generated := o.persistVariant(ctx, req, settings, variant)
		result.Images = append(result.Images, generated)
	}

	if len(result.Images) == 0 {
		return nil, domain.ErrEmptyResult
	}
	result.Count = len(result.Images)
	return result, nil
}

// persistVariant stores one successful variant on every configured backend.
// Persistence is best-effort per backend: the user gets their image back even
// when every store fails.
func (o *Orchestrator) persistVariant(ctx context.Context, req domain.GenerationRequest, settings domain.ImageSettings, v domain.GeneratedVariant) GeneratedImage {
	createdAt := o.now().UTC()
	filename := variantFilename(createdAt, v.Index)

	data := v.Data
	if data == nil && v.URL != "" && o.fetcher != nil {
		fetched, err := o.fetcher.Fetch(ctx, v.URL)
		if err != nil {
			o.logger.Warn().Err(err).Int("variant", v.Index).Msg("could not download image for persistence")
		} else {
			data = fetched
		}
	}

	record := domain.StoredImageRecord{
		ID:        baseNameOf(filename),
		Filename:  filename,
		Prompt:    req.Prompt,
		URL:       v.URL,
		CreatedAt: createdAt,
		Settings:  settings,
	}

	persistReq := storage.PersistRequest{
		Data:      data,
		SourceURL: v.URL,
		Filename:  filename,
		Prompt:    req.Prompt,
		Settings:  settings,
		CreatedAt: createdAt,
	}
	for _, backend := range o.backends {
		stored, err := backend.Persist(ctx, persistReq)
		if err != nil {
			o.logger.Warn().Err(err).
				Str("backend", backend.Name()).
				Int("variant", v.Index).
				Msg("backend persist failed")
			continue
		}
		switch backend.Name() {
		case storage.BackendLocal:
			record.Storage.Local = true
		case storage.BackendBlob:
			record.Storage.Blob = true
		case storage.BackendDocDB:
			record.Storage.DocDB = true
		}
		if stored.URL != "" {
			record.URL = stored.URL
			persistReq.SourceURL = stored.URL
		}
	}

	image := record.URL
	if image == "" && len(data) > 0 {
		image = dataURL(data)
	}
	if image == "" {
		image = v.URL
	}
	return GeneratedImage{Image: image, Filename: filename, Record: record}
}

// variantFilename follows the generated-image naming scheme: ISO timestamp
// with hyphens for filesystem safety, a uuid fragment for entropy, and the
// 1-based variant number.
func variantFilename(ts time.Time, index int) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(ts.Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("generated_%s_%s_%d.png", stamp, uuid.NewString()[:8], index+1)
}

func baseNameOf(filename string) string {
	return strings.TrimSuffix(filename, ".png")
}
