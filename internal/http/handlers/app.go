package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"optemus/internal/domain"
	"optemus/internal/generate"
	"optemus/internal/infra"
	"optemus/internal/storage"
)

// App holds the handler dependencies. Everything is injected; no package
// state exists.
type App struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Orchestrator *generate.Orchestrator
	Backends     []storage.Backend
	Fetcher      *generate.Fetcher
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, orch *generate.Orchestrator, backends []storage.Backend, fetcher *generate.Fetcher) *App {
	return &App{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orch,
		Backends:     backends,
		Fetcher:      fetcher,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{"success": false, "error": message, "kind": kind})
}

// fail maps a domain error onto the wire. Upstream auth detail stays in the
// logs; the client sees a generic message.
func (a *App) fail(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	switch {
	case errors.Is(err, domain.ErrPromptRequired):
		a.error(w, http.StatusBadRequest, kind, "Prompt is required")
	case errors.Is(err, domain.ErrProviderAuth):
		a.Logger.Error().Err(err).Msg("provider authentication failed")
		a.error(w, http.StatusInternalServerError, kind, "API configuration error")
	case errors.Is(err, domain.ErrProviderQuota):
		a.error(w, http.StatusTooManyRequests, kind, "Rate limit exceeded, please try again later")
	case errors.Is(err, domain.ErrContentRejected):
		a.error(w, http.StatusBadRequest, kind, err.Error())
	case errors.Is(err, domain.ErrProviderTimeout):
		a.error(w, http.StatusInternalServerError, kind, "Request timeout - please try again")
	case errors.Is(err, domain.ErrEmptyResult):
		a.error(w, http.StatusInternalServerError, kind, "No images were successfully generated")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, kind, "Image not found")
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, kind, "Failed to process request")
	}
}
