package sprite

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path"
	"path/filepath"
	"sync"

	"vodforge/engine"
	"vodforge/logger"
	"vodforge/metrics"
	writerbackends "vodforge/writerBackends"

	"github.com/disintegration/imaging"
)

var (
	ErrInvalidDuration    = errors.New("invalid source duration")
	ErrTooShort           = errors.New("source too short for sprite sheet")
	ErrInsufficientFrames = errors.New("insufficient frames for sprite sheet")
)

const (
	FrameWidth  = 240
	FrameHeight = 135
	Padding     = 2
	Margin      = 4

	// MinFrames is the number of genuinely extracted frames required to tile.
	MinFrames = 2

	defaultFPS = 25.0

	// edge margins of the sampling window
	startFraction = 0.05
	endFraction   = 0.95
	edgeSeconds   = 2.0
)

// Grid is the montage layout.
type Grid struct {
	Rows, Cols int
}

// Frames is the number of cells in the grid.
func (g Grid) Frames() int {
	return g.Rows * g.Cols
}

// GridFor picks the grid by source duration.
func GridFor(duration float64) Grid {
	switch {
	case duration > 600:
		return Grid{Rows: 8, Cols: 10}
	case duration > 300:
		return Grid{Rows: 6, Cols: 8}
	default:
		return Grid{Rows: 5, Cols: 5}
	}
}

// Window returns the sampling window that keeps away from the source's edges.
// For very short sources the window can degenerate to a few hundredths of a
// second; it is only rejected once it is empty.
func Window(duration float64) (start, span float64, err error) {
	start = math.Min(startFraction*duration, edgeSeconds)
	end := math.Max(endFraction*duration, duration-edgeSeconds)
	span = end - start
	if span <= 0 {
		return 0, 0, fmt.Errorf("%w: duration %.2fs leaves no sampling window", ErrTooShort, duration)
	}
	return start, span, nil
}

// Timestamps spreads n instants evenly over [start, start+span], rounded to hundredths.
func Timestamps(start, span float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{round2(start)}
	}
	step := span / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = round2(start + float64(i)*step)
	}
	return out
}

// ClampToLastFrame pulls timestamps that fall past the last decodable frame
// (duration - 1/fps) back onto it. Seeking beyond that point yields no frame.
func ClampToLastFrame(stamps []float64, duration, fps float64) []float64 {
	if fps <= 0 {
		return stamps
	}
	last := round2(math.Max(duration-1/fps, 0))
	for i, at := range stamps {
		if at > last {
			stamps[i] = last
		}
	}
	return stamps
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RemoteKey is where a job's sprite sheet is stored.
func RemoteKey(prefix, jobID string) string {
	return path.Join(prefix, jobID, jobID+"_spritesheet.jpg")
}

// Generator builds and uploads scrub-preview sprite sheets.
type Generator struct {
	Engine  engine.Engine
	Gateway writerbackends.Gateway
	Bucket  string
	// Prefix is the remote key prefix; the job id is appended.
	Prefix string
	// WorkDir holds the per-job scratch directories.
	WorkDir string
}

// FrameDir is the scratch directory used for a job's extracted frames.
func (g *Generator) FrameDir(jobID string) string {
	return filepath.Join(g.WorkDir, jobID, "sprite_frames")
}

// Generate samples frames across the source, tiles them and uploads the
// result. It returns the remote key of the uploaded sheet.
func (g *Generator) Generate(ctx context.Context, sourcePath, jobID string) (string, error) {
	probe, err := g.Engine.Probe(ctx, sourcePath)
	if err != nil {
		return "", err
	}

	duration := probe.Duration
	fps := defaultFPS
	if probe.HasDuration {
		if v, ok := probe.FirstVideo(); ok {
			if rate, ok := engine.ParseFrameRate(v.FrameRate); ok {
				fps = rate
			}
		}
	}
	if duration <= 0 {
		return "", fmt.Errorf("%w: %.2fs", ErrInvalidDuration, duration)
	}

	grid := GridFor(duration)
	start, span, err := Window(duration)
	if err != nil {
		return "", err
	}
	stamps := ClampToLastFrame(Timestamps(start, span, grid.Frames()), duration, fps)
	logger.Debugf("Sprite sheet for %s: %dx%d grid, window %.2fs+%.2fs at %.3f fps", jobID, grid.Cols, grid.Rows, start, span, fps)

	frameDir := g.FrameDir(jobID)
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return "", fmt.Errorf("create frame dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(frameDir); err != nil {
			logger.Errorf("Failed to remove sprite frames %s: %v", frameDir, err)
		}
	}()

	frames, extracted := g.extractAll(ctx, sourcePath, frameDir, stamps)
	if extracted < MinFrames {
		return "", fmt.Errorf("%w: %d of %d extracted", ErrInsufficientFrames, extracted, len(stamps))
	}

	sheet := filepath.Join(frameDir, jobID+"_spritesheet.jpg")
	layout := engine.TileLayout{Cols: grid.Cols, Rows: grid.Rows, Padding: Padding, Margin: Margin}
	if err := g.Engine.Tile(ctx, frames, layout, sheet); err != nil {
		return "", err
	}

	f, err := os.Open(sheet)
	if err != nil {
		return "", fmt.Errorf("open sprite sheet: %w", err)
	}
	defer f.Close()

	key := RemoteKey(g.Prefix, jobID)
	if _, err := g.Gateway.Upload(ctx, g.Bucket, key, f, "image/jpeg"); err != nil {
		return "", err
	}

	logger.Infof("Sprite sheet uploaded for %s: %s (%d/%d frames extracted)", jobID, key, extracted, len(stamps))
	return key, nil
}

// extractAll runs every extraction concurrently and waits for all of them.
// A failed extraction is replaced by a black frame so one bad seek does not
// sink the sheet. It returns the ordered frame paths that exist on disk and
// the number of genuine extractions.
func (g *Generator) extractAll(ctx context.Context, sourcePath, frameDir string, stamps []float64) ([]string, int) {
	paths := make([]string, len(stamps))
	ok := make([]bool, len(stamps))
	present := make([]bool, len(stamps))

	var wg sync.WaitGroup
	for i, at := range stamps {
		paths[i] = filepath.Join(frameDir, fmt.Sprintf("frame_%03d.jpg", i))
		wg.Add(1)
		go func(i int, at float64) {
			defer wg.Done()
			size := engine.Size{Width: FrameWidth, Height: FrameHeight}
			err := g.Engine.ExtractFrame(ctx, sourcePath, at, size, paths[i])
			if err == nil {
				if _, statErr := os.Stat(paths[i]); statErr == nil {
					ok[i], present[i] = true, true
					return
				}
				err = fmt.Errorf("frame missing after extraction")
			}
			logger.Warnf("Sprite frame %d at %.2fs failed, using black frame: %v", i, at, err)
			metrics.SpriteFramesMasked.Inc()
			if err := blackFrame(paths[i]); err != nil {
				logger.Errorf("Failed to synthesize black frame %s: %v", paths[i], err)
				return
			}
			present[i] = true
		}(i, at)
	}
	wg.Wait()

	var frames []string
	extracted := 0
	for i := range stamps {
		if ok[i] {
			extracted++
		}
		if present[i] {
			frames = append(frames, paths[i])
		}
	}
	return frames, extracted
}

func blackFrame(path string) error {
	return imaging.Save(imaging.New(FrameWidth, FrameHeight, color.Black), path)
}
