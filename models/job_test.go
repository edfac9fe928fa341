package models

import "testing"

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		from, to Phase
		want     bool
	}{
		{"", PhaseConverting, true},
		{"", PhaseUploading, false},
		{"", PhaseError, true},
		{PhaseConverting, PhaseUploading, true},
		{PhaseConverting, PhaseCompleted, true},
		{PhaseConverting, PhaseError, true},
		{PhaseUploading, PhaseConverting, false},
		{PhaseUploading, PhaseCompleted, true},
		{PhaseUploading, PhaseError, true},
		{PhaseCompleted, PhaseError, false},
		{PhaseCompleted, PhaseConverting, false},
		{PhaseError, PhaseConverting, false},
		{PhaseError, PhaseCompleted, false},
		{PhaseConverting, PhaseConverting, false},
	}

	for _, c := range cases {
		if got := c.from.CanAdvance(c.to); got != c.want {
			t.Errorf("%q -> %q: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
