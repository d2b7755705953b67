package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"optemus/internal/http/handlers"
	"optemus/internal/middleware"
)

// NewRouter assembles the API surface. Generated images are also served as
// static files under the configured public base path so clients can embed
// the URLs stored in image records.
func NewRouter(app *handlers.App, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Post("/generate-image", app.GenerateImage)
		r.Post("/save-image", app.SaveImage)
		r.Get("/images", app.ListImages)
		r.Delete("/images/{id}", app.DeleteImage)
		r.Get("/download/{filename}", app.DownloadImage)
	})

	fileServer := http.StripPrefix(app.Config.ImagesBaseURL, http.FileServer(http.Dir(app.Config.ImagesDir)))
	r.Get(app.Config.ImagesBaseURL+"/*", fileServer.ServeHTTP)

	return r
}
