package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(JobsTotal.WithLabelValues("completed"))
	JobsTotal.WithLabelValues("completed").Inc()
	if got := testutil.ToFloat64(JobsTotal.WithLabelValues("completed")); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestTimerObserves(t *testing.T) {
	timer := NewTimer(StepDuration.WithLabelValues("metrics-test"))
	timer.ObserveDuration()
	if n := testutil.CollectAndCount(StepDuration, "vodforge_step_duration_seconds"); n == 0 {
		t.Error("expected at least one step duration series")
	}
}
