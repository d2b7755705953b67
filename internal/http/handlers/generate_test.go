package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"optemus/internal/domain"
	"optemus/internal/storage"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGenerateImageSuccess(t *testing.T) {
	gen := &stubGenerator{}
	backend := &stubBackend{name: storage.BackendLocal}
	app := newTestApp(gen, backend)

	rec := postJSON(t, app.GenerateImage, `{"prompt":"a cat","count":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Images  []struct {
			Image    string `json:"image"`
			Filename string `json:"filename"`
			Metadata struct {
				Prompt    string `json:"prompt"`
				Timestamp string `json:"timestamp"`
			} `json:"metadata"`
		} `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Count != 2 || len(resp.Images) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	for _, img := range resp.Images {
		if img.Metadata.Prompt != "a cat" {
			t.Fatalf("metadata prompt = %q, want original", img.Metadata.Prompt)
		}
		if !strings.HasPrefix(img.Filename, "generated_") || !strings.HasSuffix(img.Filename, ".png") {
			t.Fatalf("filename = %q", img.Filename)
		}
	}
	if gen.calls != 2 {
		t.Fatalf("generator calls = %d", gen.calls)
	}
}

func TestGenerateImageEmptyPrompt(t *testing.T) {
	gen := &stubGenerator{}
	app := newTestApp(gen)

	rec := postJSON(t, app.GenerateImage, `{"prompt":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if gen.calls != 0 {
		t.Fatalf("generator calls = %d, want 0", gen.calls)
	}
	if !strings.Contains(rec.Body.String(), "Prompt is required") {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestGenerateImageCountCoercion(t *testing.T) {
	for _, body := range []string{
		`{"prompt":"p","count":"4"}`,
		`{"prompt":"p","count":4.0}`,
	} {
		gen := &stubGenerator{}
		app := newTestApp(gen, &stubBackend{name: storage.BackendLocal})
		rec := postJSON(t, app.GenerateImage, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: status = %d", body, rec.Code)
		}
		if gen.calls != 4 {
			t.Fatalf("body %s: generator calls = %d, want 4", body, gen.calls)
		}
	}

	// Unusable counts collapse to a single variant.
	gen := &stubGenerator{}
	app := newTestApp(gen, &stubBackend{name: storage.BackendLocal})
	rec := postJSON(t, app.GenerateImage, `{"prompt":"p","count":"lots"}`)
	if rec.Code != http.StatusOK || gen.calls != 1 {
		t.Fatalf("status = %d, calls = %d", rec.Code, gen.calls)
	}
}

func TestGenerateImageProviderAuthHidesDetail(t *testing.T) {
	gen := &stubGenerator{err: domain.ErrProviderAuth}
	app := newTestApp(gen)

	rec := postJSON(t, app.GenerateImage, `{"prompt":"p"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "API configuration error") {
		t.Fatalf("body = %s", body)
	}
	if strings.Contains(body, domain.ErrProviderAuth.Error()) {
		t.Fatalf("auth detail leaked: %s", body)
	}
}

func TestGenerateImageQuotaMapsTo429(t *testing.T) {
	gen := &stubGenerator{err: domain.ErrProviderQuota}
	app := newTestApp(gen)

	rec := postJSON(t, app.GenerateImage, `{"prompt":"p"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Rate limit exceeded") {
		t.Fatalf("body = %s", rec.Body)
	}
}
