package hls

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vodforge/engine"
	"vodforge/engine/enginetest"
	"vodforge/ladder"
	"vodforge/models"
)

func TestBuildMaster(t *testing.T) {
	got, err := BuildMaster([]models.VariantPlaylist{
		{Width: 1920, Height: 1080, Bitrate: "5000k", Resolution: "1920x1080", PlaylistPath: "1080p/index.m3u8"},
		{Width: 1280, Height: 720, Bitrate: "1111k", Resolution: "1280x720", PlaylistPath: "720p/index.m3u8"},
	})
	if err != nil {
		t.Fatalf("BuildMaster: %v", err)
	}

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:3\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080\n" +
		"1080p/index.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1111000,RESOLUTION=1280x720\n" +
		"720p/index.m3u8\n"
	if got != want {
		t.Errorf("unexpected manifest:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildMasterRejectsBadBitrate(t *testing.T) {
	if _, err := BuildMaster([]models.VariantPlaylist{{Bitrate: "fast"}}); err == nil {
		t.Error("expected error for non-numeric bitrate")
	}
}

func TestEncodeAllInPlanOrder(t *testing.T) {
	fake := &enginetest.Fake{}
	enc := &Encoder{Engine: fake}
	out := t.TempDir()
	plan := ladder.Plan(1920, 1080, 1.0)

	variants, err := enc.EncodeAll(t.Context(), "src.mp4", out, plan)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}
	wantPaths := []string{"1080p/index.m3u8", "720p/index.m3u8", "480p/index.m3u8"}
	for i, v := range variants {
		if v.PlaylistPath != wantPaths[i] {
			t.Errorf("variant %d: path %s, want %s", i, v.PlaylistPath, wantPaths[i])
		}
		if _, err := os.Stat(filepath.Join(out, v.PlaylistPath)); err != nil {
			t.Errorf("playlist missing: %v", err)
		}
	}
	if variants[1].Resolution != "1280x720" || variants[1].Bitrate != "1111k" {
		t.Errorf("unexpected 720p variant %+v", variants[1])
	}
	if strings.Join(fake.Encodes, ",") != "1080p,720p,480p" {
		t.Errorf("sequential encoder should follow plan order, got %v", fake.Encodes)
	}
}

func TestEncodeAllParallelKeepsOrder(t *testing.T) {
	enc := &Encoder{Engine: &enginetest.Fake{}, Workers: 3}
	variants, err := enc.EncodeAll(t.Context(), "src.mp4", t.TempDir(), ladder.Plan(3840, 2160, 1.0))
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	for i := 1; i < len(variants); i++ {
		if variants[i].Width*variants[i].Height >= variants[i-1].Width*variants[i-1].Height {
			t.Errorf("variants out of planner order at %d", i)
		}
	}
}

func TestEncodeAllAbortsOnTierFailure(t *testing.T) {
	fake := &enginetest.Fake{FailEncode: func(tier string) bool { return tier == "720p" }}
	enc := &Encoder{Engine: fake}

	variants, err := enc.EncodeAll(t.Context(), "src.mp4", t.TempDir(), ladder.Plan(1920, 1080, 1.0))
	if !errors.Is(err, engine.ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
	if variants != nil {
		t.Errorf("no variants should be surfaced on failure, got %v", variants)
	}
	if strings.Join(fake.Encodes, ",") != "1080p,720p" {
		t.Errorf("encoding should stop at the failed tier, got %v", fake.Encodes)
	}
}

func TestWriteMaster(t *testing.T) {
	dir := t.TempDir()
	p, err := WriteMaster(dir, []models.VariantPlaylist{{Width: 854, Height: 480, Bitrate: "198k", PlaylistPath: "480p/index.m3u8"}})
	if err != nil {
		t.Fatalf("WriteMaster: %v", err)
	}
	data, _ := os.ReadFile(p)
	if !strings.Contains(string(data), "BANDWIDTH=198000,RESOLUTION=854x480") {
		t.Errorf("unexpected manifest %s", data)
	}
}
