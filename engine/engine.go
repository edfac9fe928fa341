// Package engine wraps the out-of-process transcoding tools (ffprobe and
// ffmpeg) behind a small interface so the pipeline can be exercised with fakes.
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEngine wraps every failure reported by a transcoding tool.
	ErrEngine = errors.New("engine error")
	// ErrNoVideoStream is returned when a probed source has no video stream.
	ErrNoVideoStream = errors.New("no video stream found")
)

// Size is a frame size in pixels.
type Size struct {
	Width, Height int
}

// VideoStream is the subset of stream metadata the pipeline needs.
type VideoStream struct {
	Width     int
	Height    int
	FrameRate string // rational, e.g. "30000/1001"
}

// ProbeResult is what Probe learns about a media file.
type ProbeResult struct {
	Duration     float64 // seconds; zero when unknown
	HasDuration  bool
	VideoStreams []VideoStream
}

// FirstVideo returns the first video stream with usable dimensions.
func (p ProbeResult) FirstVideo() (VideoStream, bool) {
	for _, s := range p.VideoStreams {
		if s.Width > 0 && s.Height > 0 {
			return s, true
		}
	}
	return VideoStream{}, false
}

// ScaleSpec is the target box a segmented encode is fitted and padded into.
type ScaleSpec struct {
	Width, Height int
}

// SegmentOptions controls a segmented-streaming encode.
type SegmentOptions struct {
	OutputDir      string
	PlaylistName   string // e.g. "index.m3u8"
	SegmentPattern string // e.g. "segment_%03d.ts"
	SegmentSeconds int
	VideoBitrate   string // e.g. "1111k"
	CRF            int
}

// TileLayout describes a sprite montage grid.
type TileLayout struct {
	Cols, Rows      int
	Padding, Margin int
}

// Engine is the transcoding collaborator consumed by the pipeline.
type Engine interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
	ExtractFrame(ctx context.Context, path string, at float64, size Size, out string) error
	EncodeSegmented(ctx context.Context, path string, scale ScaleSpec, opts SegmentOptions) error
	Tile(ctx context.Context, frames []string, layout TileLayout, out string) error
}

// ParseFrameRate parses a rational "num/den" (or plain decimal) frame rate.
func ParseFrameRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !found {
		return n, n > 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	fps := n / d
	return fps, fps > 0
}
