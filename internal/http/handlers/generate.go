package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"optemus/internal/domain"
)

type generateImageRequest struct {
	Prompt      string          `json:"prompt"`
	Size        string          `json:"size"`
	Quality     string          `json:"quality"`
	StyleType   string          `json:"styleType"`
	StylePreset string          `json:"stylePreset"`
	Count       json.RawMessage `json:"count"`
}

// countValue tolerates non-numeric count payloads: anything unusable simply
// clamps to 1 downstream.
func (r generateImageRequest) countValue() int {
	var n int
	if err := json.Unmarshal(r.Count, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(r.Count, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(r.Count, &s); err == nil {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return int(parsed)
		}
	}
	return 0
}

type generatedImagePayload struct {
	Image    string        `json:"image"`
	Filename string        `json:"filename"`
	Metadata imageMetadata `json:"metadata"`
}

type imageMetadata struct {
	Prompt    string               `json:"prompt"`
	Timestamp string               `json:"timestamp"`
	Settings  domain.ImageSettings `json:"settings"`
	Filename  string               `json:"filename"`
}

// GenerateImage handles POST /api/generate-image.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid payload")
		return
	}

	result, err := a.Orchestrator.Handle(r.Context(), domain.GenerationRequest{
		Prompt:      req.Prompt,
		Size:        req.Size,
		Quality:     req.Quality,
		StyleType:   req.StyleType,
		StylePreset: req.StylePreset,
		Count:       req.countValue(),
	})
	if err != nil {
		a.fail(w, err)
		return
	}

	images := make([]generatedImagePayload, 0, len(result.Images))
	for _, img := range result.Images {
		images = append(images, generatedImagePayload{
			Image:    img.Image,
			Filename: img.Filename,
			Metadata: imageMetadata{
				Prompt:    img.Record.Prompt,
				Timestamp: img.Record.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
				Settings:  img.Record.Settings,
				Filename:  img.Filename,
			},
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"images":  images,
		"count":   result.Count,
	})
}
