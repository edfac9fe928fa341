package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vodforge/logger"
)

// stderrTail bounds how much tool output is carried inside an error.
const stderrTail = 2048

// FFmpeg implements Engine by shelling out to ffprobe and ffmpeg.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpeg returns an FFmpeg engine, defaulting binaries to those found in PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// CheckAvailable verifies both binaries can be resolved.
func (f *FFmpeg) CheckAvailable() error {
	for _, bin := range []string{f.FFmpegPath, f.FFprobePath} {
		path, err := exec.LookPath(bin)
		if err != nil {
			logger.Warnf("engine: command '%s' not found in PATH", bin)
			return fmt.Errorf("%w: %s not found: %v", ErrEngine, bin, err)
		}
		logger.Debugf("engine: using %s", path)
	}
	return nil
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe and decodes its JSON output.
func (f *FFmpeg) Probe(ctx context.Context, path string) (ProbeResult, error) {
	args := []string{"-v", "error", "-show_format", "-show_streams", "-of", "json", "--", path}
	out, err := f.run(ctx, f.FFprobePath, args)
	if err != nil {
		return ProbeResult{}, err
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (ProbeResult, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrEngine, err)
	}

	var res ProbeResult
	if d, err := strconv.ParseFloat(strings.TrimSpace(raw.Format.Duration), 64); err == nil {
		res.Duration = d
		res.HasDuration = true
	}
	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		rate := s.RFrameRate
		if _, ok := ParseFrameRate(rate); !ok {
			rate = s.AvgFrameRate
		}
		res.VideoStreams = append(res.VideoStreams, VideoStream{Width: s.Width, Height: s.Height, FrameRate: rate})
	}
	return res, nil
}

// ExtractFrame writes a single JPEG frame taken at the given instant.
func (f *FFmpeg) ExtractFrame(ctx context.Context, path string, at float64, size Size, out string) error {
	_, err := f.run(ctx, f.FFmpegPath, extractFrameArgs(path, at, size, out))
	return err
}

func extractFrameArgs(path string, at float64, size Size, out string) []string {
	return []string{
		"-y", "-v", "error",
		"-ss", strconv.FormatFloat(at, 'f', 2, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", size.Width, size.Height),
		"-q:v", "2",
		out,
	}
}

// EncodeSegmented produces an HLS rendition fitted and letterboxed into scale.
func (f *FFmpeg) EncodeSegmented(ctx context.Context, path string, scale ScaleSpec, opts SegmentOptions) error {
	_, err := f.run(ctx, f.FFmpegPath, encodeArgs(path, scale, opts))
	return err
}

// FitPadFilter scales into the box without cropping, then pads to the exact size.
func FitPadFilter(w, h int) string {
	return fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h)
}

func encodeArgs(path string, scale ScaleSpec, opts SegmentOptions) []string {
	return []string{
		"-y", "-v", "error",
		"-i", path,
		"-vf", FitPadFilter(scale.Width, scale.Height),
		"-c:v", "libx264",
		"-crf", strconv.Itoa(opts.CRF),
		"-b:v", opts.VideoBitrate,
		"-maxrate", opts.VideoBitrate,
		"-bufsize", opts.VideoBitrate,
		"-c:a", "aac",
		"-b:a", "128k",
		"-hls_time", strconv.Itoa(opts.SegmentSeconds),
		"-hls_flags", "independent_segments",
		"-hls_playlist_type", "vod",
		"-hls_segment_type", "mpegts",
		"-hls_segment_filename", filepath.Join(opts.OutputDir, opts.SegmentPattern),
		"-f", "hls",
		filepath.Join(opts.OutputDir, opts.PlaylistName),
	}
}

// Tile montages the ordered frames into a single JPEG grid.
func (f *FFmpeg) Tile(ctx context.Context, frames []string, layout TileLayout, out string) error {
	listPath := out + ".ffconcat"
	if err := os.WriteFile(listPath, []byte(concatList(frames)), 0644); err != nil {
		return fmt.Errorf("%w: write frame list: %v", ErrEngine, err)
	}
	defer os.Remove(listPath)

	_, err := f.run(ctx, f.FFmpegPath, tileArgs(listPath, layout, out))
	return err
}

func concatList(frames []string) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, frame := range frames {
		abs, err := filepath.Abs(frame)
		if err != nil {
			abs = frame
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String()
}

func tileArgs(listPath string, layout TileLayout, out string) []string {
	return []string{
		"-y", "-v", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-vf", fmt.Sprintf("tile=%dx%d:padding=%d:margin=%d", layout.Cols, layout.Rows, layout.Padding, layout.Margin),
		"-frames:v", "1",
		"-q:v", "3",
		out,
	}
}

// run executes a tool and returns stdout, wrapping failures in ErrEngine.
func (f *FFmpeg) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf("engine: %s %s", filepath.Base(bin), strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return nil, fmt.Errorf("%w: %s failed: %v: %s", ErrEngine, filepath.Base(bin), err, msg)
	}
	return stdout.Bytes(), nil
}
