package thumbnail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vodforge/engine"
	"vodforge/engine/enginetest"
)

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "job1_source.mp4")
	if err := os.WriteFile(src, []byte("video"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return src
}

func TestSeekPoint(t *testing.T) {
	if got := SeekPoint(720); got != 10 {
		t.Errorf("long source: expected 10s, got %v", got)
	}
	if got := SeekPoint(10); got != 1 {
		t.Errorf("10s source: expected 1s, got %v", got)
	}
	if got := SeekPoint(0); got != 1 {
		t.Errorf("unknown duration: expected 1s, got %v", got)
	}
}

func TestGenerateDefaults(t *testing.T) {
	src := writeSource(t)
	fake := &enginetest.Fake{Result: engine.ProbeResult{Duration: 720, HasDuration: true}}

	path, err := Generate(t.Context(), fake, src, "job1", Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Base(path) != "job1_thumbnail.jpg" {
		t.Errorf("unexpected filename %s", path)
	}
	if filepath.Dir(path) != filepath.Dir(src) {
		t.Errorf("expected thumbnail next to source, got %s", path)
	}
	if len(fake.Extracts) != 1 || fake.Extracts[0] != 10 {
		t.Errorf("expected a single extraction at 10s, got %v", fake.Extracts)
	}
}

func TestGenerateOverrides(t *testing.T) {
	src := writeSource(t)
	outDir := filepath.Join(t.TempDir(), "thumbs")
	at := 3.5
	fake := &enginetest.Fake{ProbeErr: errors.New("probe must not be called")}

	path, err := Generate(t.Context(), fake, src, "job1", Options{
		OutputDir: outDir,
		Timestamp: &at,
		Width:     320,
		Height:    180,
		Filename:  "poster.jpg",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != filepath.Join(outDir, "poster.jpg") {
		t.Errorf("unexpected path %s", path)
	}
	if fake.Extracts[0] != 3.5 {
		t.Errorf("expected override timestamp, got %v", fake.Extracts[0])
	}
}

func TestGenerateMissingSource(t *testing.T) {
	fake := &enginetest.Fake{}
	_, err := Generate(t.Context(), fake, filepath.Join(t.TempDir(), "nope.mp4"), "job1", Options{})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if fake.ExtractCount() != 0 {
		t.Error("engine should not be invoked for a missing source")
	}
}

func TestGenerateMissingOutput(t *testing.T) {
	src := writeSource(t)
	fake := &enginetest.Fake{Result: engine.ProbeResult{Duration: 5, HasDuration: true}, SkipOutput: true}

	_, err := Generate(t.Context(), fake, src, "job1", Options{})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestGenerateEngineFailure(t *testing.T) {
	src := writeSource(t)
	fake := &enginetest.Fake{
		Result:      engine.ProbeResult{Duration: 5, HasDuration: true},
		FailExtract: func(float64) bool { return true },
	}

	_, err := Generate(t.Context(), fake, src, "job1", Options{})
	if !errors.Is(err, ErrExtraction) || !errors.Is(err, engine.ErrEngine) {
		t.Fatalf("expected ErrExtraction wrapping ErrEngine, got %v", err)
	}
}
