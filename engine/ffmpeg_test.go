package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "audio", "r_frame_rate": "0/0"},
			{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001"}
		],
		"format": {"duration": "720.040000"}
	}`)

	res, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if !res.HasDuration || res.Duration != 720.04 {
		t.Errorf("unexpected duration %v (has=%v)", res.Duration, res.HasDuration)
	}
	v, ok := res.FirstVideo()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if v.Width != 1920 || v.Height != 1080 || v.FrameRate != "30000/1001" {
		t.Errorf("unexpected stream %+v", v)
	}
}

func TestParseProbeWithoutVideo(t *testing.T) {
	res, err := parseProbe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"N/A"}}`))
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if res.HasDuration {
		t.Error("N/A duration should not be reported")
	}
	if _, ok := res.FirstVideo(); ok {
		t.Error("expected no video stream")
	}

	if _, err := parseProbe([]byte("not json")); !errors.Is(err, ErrEngine) {
		t.Errorf("expected ErrEngine, got %v", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"25/1", 25, true},
		{"30000/1001", 30000.0 / 1001.0, true},
		{"24", 24, true},
		{"0/0", 0, false},
		{"", 0, false},
		{"abc/1", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFrameRate(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseFrameRate(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestEncodeArgs(t *testing.T) {
	args := strings.Join(encodeArgs("/src/in.mp4", ScaleSpec{Width: 1280, Height: 720}, SegmentOptions{
		OutputDir:      "/out/720p",
		PlaylistName:   "index.m3u8",
		SegmentPattern: "segment_%03d.ts",
		SegmentSeconds: 10,
		VideoBitrate:   "1111k",
		CRF:            23,
	}), " ")

	for _, want := range []string{
		"scale=w=1280:h=720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2",
		"-hls_time 10",
		"-hls_flags independent_segments",
		"-hls_playlist_type vod",
		"-hls_segment_type mpegts",
		"-c:v libx264",
		"-c:a aac",
		"-crf 23",
		"-b:v 1111k",
		filepath.Join("/out/720p", "segment_%03d.ts"),
		filepath.Join("/out/720p", "index.m3u8"),
	} {
		if !strings.Contains(args, want) {
			t.Errorf("encode args missing %q: %s", want, args)
		}
	}
}

func TestExtractAndTileArgs(t *testing.T) {
	args := strings.Join(extractFrameArgs("in.mp4", 12.345, Size{Width: 240, Height: 135}, "f.jpg"), " ")
	if !strings.Contains(args, "-ss 12.35") || !strings.Contains(args, "scale=240:135") {
		t.Errorf("unexpected extract args: %s", args)
	}

	args = strings.Join(tileArgs("list", TileLayout{Cols: 8, Rows: 6, Padding: 2, Margin: 4}, "out.jpg"), " ")
	if !strings.Contains(args, "tile=8x6:padding=2:margin=4") {
		t.Errorf("unexpected tile args: %s", args)
	}
}

func TestConcatListOrder(t *testing.T) {
	list := concatList([]string{"/tmp/a.jpg", "/tmp/b.jpg", "/tmp/it's.jpg"})
	lines := strings.Split(strings.TrimSpace(list), "\n")
	if lines[0] != "ffconcat version 1.0" {
		t.Fatalf("missing header: %q", lines[0])
	}
	if lines[1] != "file '/tmp/a.jpg'" || lines[2] != "file '/tmp/b.jpg'" {
		t.Errorf("frames out of order: %v", lines)
	}
	if lines[3] != `file '/tmp/it'\''s.jpg'` {
		t.Errorf("quote not escaped: %s", lines[3])
	}
}

func TestRunWrapsFailures(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg"), "")
	err := f.ExtractFrame(t.Context(), "in.mp4", 1, Size{Width: 1, Height: 1}, filepath.Join(os.TempDir(), "x.jpg"))
	if !errors.Is(err, ErrEngine) {
		t.Errorf("expected ErrEngine, got %v", err)
	}
	if err := f.CheckAvailable(); !errors.Is(err, ErrEngine) {
		t.Errorf("expected ErrEngine from CheckAvailable, got %v", err)
	}
}
