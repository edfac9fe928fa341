package writerbackends

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), "ftp", nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewValidatesAccessInfo(t *testing.T) {
	if _, err := New(context.Background(), "s3", map[string]string{}); err == nil {
		t.Error("s3 without region should fail")
	}
	if _, err := New(context.Background(), "sftp", map[string]string{"host": "h"}); err == nil {
		t.Error("sftp without user should fail")
	}
	if _, err := New(context.Background(), "sftp", map[string]string{"host": "h", "user": "u"}); err == nil {
		t.Error("sftp without auth should fail")
	}
	if _, err := New(context.Background(), "directServe", map[string]string{}); err == nil {
		t.Error("directServe without baseDir should fail")
	}
}

func TestS3Construction(t *testing.T) {
	g, err := NewS3(map[string]string{
		"region":    "us-east-1",
		"accessKey": "AKIDEXAMPLE",
		"secretKey": "secret",
		"endpoint":  "http://localhost:9000",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	// Presigning is purely local, no network involved.
	url, err := g.SignedDownloadURL(context.Background(), "media", "uploads/abc")
	if err != nil {
		t.Fatalf("SignedDownloadURL: %v", err)
	}
	if !strings.Contains(url, "localhost:9000/media/uploads/abc") || !strings.Contains(url, "X-Amz-Signature") {
		t.Errorf("unexpected presigned url %s", url)
	}
}

func TestSFTPLocator(t *testing.T) {
	g, err := NewSFTP(map[string]string{"host": "files.example.com", "user": "u", "password": "p", "remoteRoot": "/srv"})
	if err != nil {
		t.Fatalf("NewSFTP: %v", err)
	}
	url, _ := g.SignedDownloadURL(context.Background(), "media", "a/b.ts")
	if url != "sftp://files.example.com:22/srv/media/a/b.ts" {
		t.Errorf("unexpected locator %s", url)
	}
}

func TestDirectServeRoundTrip(t *testing.T) {
	base := t.TempDir()
	g, err := NewDirectServe(map[string]string{"baseDir": base, "publicURL": "http://localhost:8080/"})
	if err != nil {
		t.Fatalf("NewDirectServe: %v", err)
	}

	ctx := context.Background()
	if _, err := g.SignedDownloadURL(ctx, "media", "missing.mp4"); !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport for missing object, got %v", err)
	}

	loc, err := g.Upload(ctx, "media", "videos/abc/master.m3u8", strings.NewReader("#EXTM3U"), "application/vnd.apple.mpegurl")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if loc != "http://localhost:8080/files/media/videos/abc/master.m3u8" {
		t.Errorf("unexpected location %s", loc)
	}

	data, err := os.ReadFile(filepath.Join(base, "media", "videos", "abc", "master.m3u8"))
	if err != nil || string(data) != "#EXTM3U" {
		t.Errorf("file not written: %q, %v", data, err)
	}

	url, err := g.SignedDownloadURL(ctx, "media", "videos/abc/master.m3u8")
	if err != nil || url != loc {
		t.Errorf("SignedDownloadURL = %s, %v", url, err)
	}
}

func TestDirectServeRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	g, _ := NewDirectServe(map[string]string{"baseDir": base})

	if _, err := g.Upload(context.Background(), "media", "../../escape.txt", strings.NewReader("x"), "text/plain"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Errorf("traversal should be clamped inside baseDir: %v", err)
	}
}

func TestMemoryFailures(t *testing.T) {
	m := NewMemory()
	m.FailKey = func(key string) bool { return strings.HasSuffix(key, ".ts") }

	if _, err := m.Upload(context.Background(), "b", "x.m3u8", strings.NewReader("a"), "ct"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.Upload(context.Background(), "b", "x.ts", strings.NewReader("a"), "ct"); !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
	if m.Calls() != 2 || len(m.Keys()) != 1 {
		t.Errorf("calls=%d keys=%v", m.Calls(), m.Keys())
	}
}
