package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARN)
	defer SetLevel(DEBUG)

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at WARN level: %s", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestEntryFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)

	With(map[string]any{"job": "abc123"}).Infof("encoding %s", "720p")

	out := buf.String()
	if !strings.Contains(out, `"job":"abc123"`) {
		t.Errorf("expected job field in output: %s", out)
	}
	if !strings.Contains(out, "encoding 720p") {
		t.Errorf("expected message in output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
