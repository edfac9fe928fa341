package download

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "job", "source.mp4")
	n, err := Fetch(t.Context(), srv.URL, dest, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != int64(len("video-bytes")) {
		t.Errorf("expected %d bytes, got %d", len("video-bytes"), n)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "video-bytes" {
		t.Errorf("unexpected contents %q", data)
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "source.mp4")
	if _, err := Fetch(t.Context(), srv.URL, dest, 0); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be written for a failed response")
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := Fetch(t.Context(), srv.URL, filepath.Join(t.TempDir(), "s.mp4"), 50*time.Millisecond)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport on timeout, got %v", err)
	}
}
