package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vodforge/engine"
	"vodforge/logger"
)

// ErrExtraction is returned when no thumbnail could be produced.
var ErrExtraction = errors.New("thumbnail extraction failed")

const (
	DefaultWidth  = 1280
	DefaultHeight = 720

	// Sources longer than lateSeekAfter are sampled at lateSeek, others at earlySeek.
	lateSeekAfter = 10.0
	lateSeek      = 10.0
	earlySeek     = 1.0
)

// Options overrides the defaults of Generate. Zero values mean "use the default".
type Options struct {
	OutputDir string   // defaults to the source file's directory
	Timestamp *float64 // seconds into the source
	Width     int
	Height    int
	Filename  string // defaults to <jobID>_thumbnail.jpg
}

// Filename returns the default thumbnail filename for a job.
func Filename(jobID string) string {
	return jobID + "_thumbnail.jpg"
}

// SeekPoint picks the extraction instant for a source of the given duration.
func SeekPoint(duration float64) float64 {
	if duration > lateSeekAfter {
		return lateSeek
	}
	return earlySeek
}

// Generate extracts a single JPEG frame from sourcePath and returns its local path.
// Uploading the result is the caller's job.
func Generate(ctx context.Context, eng engine.Engine, sourcePath, jobID string, opts Options) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("%w: source %s: %v", ErrExtraction, sourcePath, err)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(sourcePath)
	}
	name := opts.Filename
	if name == "" {
		name = Filename(jobID)
	}
	size := engine.Size{Width: opts.Width, Height: opts.Height}
	if size.Width <= 0 || size.Height <= 0 {
		size = engine.Size{Width: DefaultWidth, Height: DefaultHeight}
	}

	var at float64
	if opts.Timestamp != nil {
		at = *opts.Timestamp
	} else {
		probe, err := eng.Probe(ctx, sourcePath)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		at = SeekPoint(probe.Duration)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", ErrExtraction, err)
	}
	outPath := filepath.Join(outDir, name)

	logger.Debugf("Extracting thumbnail for %s at %.2fs (%dx%d)", jobID, at, size.Width, size.Height)
	if err := eng.ExtractFrame(ctx, sourcePath, at, size, outPath); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("%w: output %s missing after extraction", ErrExtraction, outPath)
	}

	logger.Infof("Thumbnail generated for %s: %s", jobID, outPath)
	return outPath, nil
}
