package handlers

import (
	"net/http"
	"time"

	"optemus/internal/infra"
)

// Health handles GET /api/health. The payload reports configuration
// presence only; secrets appear as short truncated previews, never in
// full.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	cfg := a.Config

	backends := make([]string, 0, len(a.Backends))
	for _, b := range a.Backends {
		backends = append(backends, b.Name())
	}

	a.json(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"env":       cfg.AppEnv,
		"openai": map[string]any{
			"configured": cfg.OpenAIAPIKey != "",
			"keyPreview": infra.SecretPreview(cfg.OpenAIAPIKey),
			"model":      cfg.OpenAIModel,
		},
		"storage": map[string]any{
			"backends": backends,
			"local": map[string]any{
				"dir": cfg.ImagesDir,
			},
			"blob": map[string]any{
				"configured": cfg.S3Bucket != "" && cfg.S3AccessKeyID != "",
				"bucket":     cfg.S3Bucket,
				"region":     cfg.S3Region,
				"keyPreview": infra.SecretPreview(cfg.S3AccessKeyID),
			},
			"docdb": map[string]any{
				"configured":   cfg.NotionToken != "" && cfg.NotionDatabaseID != "",
				"tokenPreview": infra.SecretPreview(cfg.NotionToken),
			},
		},
	})
}
