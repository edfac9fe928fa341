package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"vodforge/ladder"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"region=eu-west-1", "endpoint=http://minio:9000/?a=b"})
	if err != nil {
		t.Fatalf("parsePairs: %v", err)
	}
	if got["region"] != "eu-west-1" || got["endpoint"] != "http://minio:9000/?a=b" {
		t.Errorf("unexpected pairs %v", got)
	}
	if _, err := parsePairs([]string{"novalue"}); err == nil {
		t.Error("expected error for argument without '='")
	}
}

func TestWritePlan(t *testing.T) {
	var buf bytes.Buffer
	writePlan(&buf, ladder.Plan(640, 360, 1.0))
	out := buf.String()
	if !strings.Contains(out, "360p (source)") || !strings.Contains(out, "640x360") || !strings.Contains(out, "360p_source") {
		t.Errorf("unexpected plan output:\n%s", out)
	}
	if !strings.Contains(out, "RESOLUTION") || !strings.Contains(out, "╭") {
		t.Errorf("expected a rounded table with a header:\n%s", out)
	}
}

func TestPlanCommand(t *testing.T) {
	t.Setenv("VODFORGE_CONFIG", "")
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"plan", "--width", "1920", "--height", "1080"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, tier := range []string{"1080p", "720p", "480p"} {
		if !strings.Contains(buf.String(), tier) {
			t.Errorf("missing %s in output:\n%s", tier, buf.String())
		}
	}
	if strings.Contains(buf.String(), "1440p") {
		t.Error("plan should not upscale")
	}
}

func TestCredentialsCommands(t *testing.T) {
	t.Setenv("VODFORGE_CONFIG", "")
	t.Setenv("VODFORGE_DATA_DIR", filepath.Join(t.TempDir(), "data"))

	run := func(args ...string) string {
		t.Helper()
		cmd := newRootCommand()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return buf.String()
	}

	run("credentials", "set", "s3-main", "region=eu-west-1", "secretKey=shh")
	out := run("credentials", "get", "s3-main")
	if !strings.Contains(out, "eu-west-1") || strings.Contains(out, "shh") {
		t.Errorf("secret should be redacted:\n%s", out)
	}
	if out := run("credentials", "list"); strings.TrimSpace(out) != "s3-main" {
		t.Errorf("unexpected list output %q", out)
	}
	run("credentials", "delete", "s3-main")
	if out := run("credentials", "list"); strings.TrimSpace(out) != "" {
		t.Errorf("expected no keys after delete, got %q", out)
	}
}
