package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"optemus/internal/domain"
	"optemus/internal/generate"
	"optemus/internal/imagegen"
	"optemus/internal/infra"
	"optemus/internal/storage"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
	data  []byte
}

func (s *stubGenerator) Generate(ctx context.Context, prompt, size, quality string) (imagegen.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return imagegen.Result{}, s.err
	}
	data := s.data
	if data == nil {
		data = []byte("img")
	}
	return imagegen.Result{Data: data}, nil
}

type stubBackend struct {
	mu        sync.Mutex
	name      string
	records   []domain.StoredImageRecord
	persisted []storage.PersistRequest
	listErr   error
	deleteErr error
	deleted   []string
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Persist(ctx context.Context, req storage.PersistRequest) (domain.StoredImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted = append(s.persisted, req)
	return domain.StoredImageRecord{
		ID:        strings.TrimSuffix(req.Filename, ".png"),
		Filename:  req.Filename,
		Prompt:    req.Prompt,
		URL:       "/images/" + req.Filename,
		CreatedAt: req.CreatedAt,
		Settings:  req.Settings,
	}, nil
}

func (s *stubBackend) List(ctx context.Context) ([]domain.StoredImageRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.records, nil
}

func (s *stubBackend) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func newTestApp(gen imagegen.Generator, backends ...storage.Backend) *App {
	cfg := &infra.Config{
		AppEnv:       "test",
		OpenAIAPIKey: "sk-test-aaaaaaaaaaaaaaaaaaaa",
		OpenAIModel:  "gpt-image-1",
		ImagesDir:    "public/images",
	}
	logger := zerolog.Nop()
	fetcher := generate.NewFetcher(nil)
	orch := generate.NewOrchestrator(gen, backends, fetcher, logger)
	return NewApp(cfg, logger, orch, backends, fetcher)
}
