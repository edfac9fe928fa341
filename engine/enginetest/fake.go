// Package enginetest provides an in-process Engine that writes placeholder
// artifacts instead of invoking ffmpeg.
package enginetest

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vodforge/engine"

	"github.com/disintegration/imaging"
)

// Fake records calls and produces small but valid output files.
type Fake struct {
	Result engine.ProbeResult

	ProbeErr error
	// FailExtract decides whether a given extraction should fail.
	FailExtract func(at float64) bool
	// FailEncode decides whether a given tier (by output dir base name) should fail.
	FailEncode func(tierDir string) bool
	TileErr    error
	// SkipOutput makes ExtractFrame report success without writing a file.
	SkipOutput bool

	mu       sync.Mutex
	Extracts []float64
	Encodes  []string
	Tiles    []engine.TileLayout
	Frames   [][]string
}

func (f *Fake) Probe(ctx context.Context, path string) (engine.ProbeResult, error) {
	if f.ProbeErr != nil {
		return engine.ProbeResult{}, f.ProbeErr
	}
	return f.Result, nil
}

func (f *Fake) ExtractFrame(ctx context.Context, path string, at float64, size engine.Size, out string) error {
	f.mu.Lock()
	f.Extracts = append(f.Extracts, at)
	f.mu.Unlock()

	if f.FailExtract != nil && f.FailExtract(at) {
		return fmt.Errorf("%w: seek to %.2f failed", engine.ErrEngine, at)
	}
	if f.SkipOutput {
		return nil
	}
	return imaging.Save(imaging.New(size.Width, size.Height, color.White), out)
}

func (f *Fake) EncodeSegmented(ctx context.Context, path string, scale engine.ScaleSpec, opts engine.SegmentOptions) error {
	tier := filepath.Base(opts.OutputDir)
	f.mu.Lock()
	f.Encodes = append(f.Encodes, tier)
	f.mu.Unlock()

	if f.FailEncode != nil && f.FailEncode(tier) {
		return fmt.Errorf("%w: encode %s failed", engine.ErrEngine, tier)
	}

	var playlist strings.Builder
	playlist.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-PLAYLIST-TYPE:VOD\n")
	for i := range 2 {
		name := fmt.Sprintf(opts.SegmentPattern, i)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte("ts"), 0644); err != nil {
			return err
		}
		fmt.Fprintf(&playlist, "#EXTINF:10.0,\n%s\n", name)
	}
	playlist.WriteString("#EXT-X-ENDLIST\n")
	return os.WriteFile(filepath.Join(opts.OutputDir, opts.PlaylistName), []byte(playlist.String()), 0644)
}

func (f *Fake) Tile(ctx context.Context, frames []string, layout engine.TileLayout, out string) error {
	f.mu.Lock()
	f.Tiles = append(f.Tiles, layout)
	f.Frames = append(f.Frames, append([]string(nil), frames...))
	f.mu.Unlock()

	if f.TileErr != nil {
		return f.TileErr
	}
	for _, frame := range frames {
		if _, err := os.Stat(frame); err != nil {
			return fmt.Errorf("%w: missing frame %s", engine.ErrEngine, frame)
		}
	}
	return imaging.Save(imaging.New(layout.Cols*10, layout.Rows*10, color.Black), out)
}

// ExtractCount returns the number of ExtractFrame calls so far.
func (f *Fake) ExtractCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Extracts)
}
