package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"optemus/internal/domain"
	"optemus/internal/gallery"
	"optemus/internal/generate"
	"optemus/internal/storage"
	"optemus/pkg/slug"
)

// ListImages handles GET /api/images. Listings from every configured backend
// are merged and reconciled into one canonical gallery view. A backend that
// fails to list degrades the view instead of failing the request.
func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	// The rescan flag forces a fresh enumeration; nothing is cached server
	// side, so it is accepted for compatibility and behaves like a normal
	// listing.
	_ = r.URL.Query().Get("rescan")

	var raw []domain.StoredImageRecord
	partial := false
	for _, backend := range a.Backends {
		records, err := backend.List(r.Context())
		if err != nil {
			a.Logger.Warn().Err(err).Str("backend", backend.Name()).Msg("backend listing failed")
			partial = true
			continue
		}
		raw = append(raw, records...)
	}

	view := gallery.Reconcile(raw)
	if view == nil {
		view = []domain.StoredImageRecord{}
	}
	message := fmt.Sprintf("Found %d images", len(view))
	switch {
	case partial:
		message = fmt.Sprintf("Found %d images (one or more backends could not be listed)", len(view))
	case len(view) == 0:
		message = "No images found. The configured backend may not support listing without extra credentials."
	}

	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"images":  view,
		"count":   len(view),
		"message": message,
	})
}

// DeleteImage handles DELETE /api/images/{id}. Deletion is best-effort
// across backends; some accept the request without removing anything.
func (a *App) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "validation", "image id is required")
		return
	}

	deleted := false
	for _, backend := range a.Backends {
		err := backend.Delete(r.Context(), id)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, domain.ErrNotFound):
		default:
			a.Logger.Warn().Err(err).Str("backend", backend.Name()).Str("id", id).Msg("backend delete failed")
		}
	}
	if !deleted {
		a.fail(w, domain.ErrNotFound)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Image deleted successfully",
	})
}

type saveImageRequest struct {
	Prompt     string               `json:"prompt"`
	Base64Data string               `json:"base64Data"`
	ImageURL   string               `json:"imageUrl"`
	Settings   domain.ImageSettings `json:"settings"`
}

// SaveImage handles POST /api/save-image: persisting an already-generated
// image supplied as base64 data or a URL, independent of the generation
// call.
func (a *App) SaveImage(w http.ResponseWriter, r *http.Request) {
	var req saveImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid payload")
		return
	}
	if req.Base64Data == "" && req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "validation", "Image data or URL is required")
		return
	}

	var data []byte
	var err error
	if req.Base64Data != "" {
		data, err = generate.DecodeBase64Image(req.Base64Data)
	} else {
		data, err = a.Fetcher.Fetch(r.Context(), req.ImageURL)
	}
	if err != nil {
		a.Logger.Warn().Err(err).Msg("could not obtain image payload")
		a.error(w, http.StatusBadRequest, "validation", "could not read image data")
		return
	}

	createdAt := time.Now().UTC()
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(createdAt.Format("2006-01-02T15:04:05.000Z"))
	filename := fmt.Sprintf("%s_%s.png", slug.FromPrompt(req.Prompt), stamp)

	persistReq := storage.PersistRequest{
		Data:      data,
		SourceURL: req.ImageURL,
		Filename:  filename,
		Prompt:    req.Prompt,
		Settings:  req.Settings,
		CreatedAt: createdAt,
	}

	var stored *domain.StoredImageRecord
	for _, backend := range a.Backends {
		rec, err := backend.Persist(r.Context(), persistReq)
		if err != nil {
			a.Logger.Warn().Err(err).Str("backend", backend.Name()).Msg("backend persist failed")
			continue
		}
		if stored == nil {
			stored = &rec
		}
		if rec.URL != "" {
			persistReq.SourceURL = rec.URL
		}
	}
	if stored == nil {
		a.fail(w, domain.ErrStorageWrite)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"image": map[string]any{
			"filename": stored.Filename,
			"url":      stored.URL,
			"metadata": imageMetadata{
				Prompt:    req.Prompt,
				Timestamp: createdAt.Format("2006-01-02T15:04:05.000Z"),
				Settings:  stored.Settings,
				Filename:  stored.Filename,
			},
		},
	})
}

// DownloadImage handles GET /api/download/{filename}, streaming a locally
// stored image as an attachment.
func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		a.error(w, http.StatusBadRequest, "validation", "invalid filename")
		return
	}

	path := filepath.Join(a.Config.ImagesDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		a.fail(w, domain.ErrNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", downloadContentType(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func downloadContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
