package generate

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	data, err := NewFetcher(nil).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestFetcherFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewFetcher(nil).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte("png-data")
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{encoded, "data:image/png;base64," + encoded} {
		got, err := DecodeBase64Image(in)
		if err != nil {
			t.Fatalf("DecodeBase64Image(%q): %v", in[:16], err)
		}
		if string(got) != string(raw) {
			t.Fatalf("decoded = %q", got)
		}
	}

	if _, err := DecodeBase64Image(""); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := DecodeBase64Image("data:image/png;base64"); err == nil {
		t.Fatal("expected error for malformed data url")
	}
}
