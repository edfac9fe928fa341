package pipeline

import (
	"context"
	"strconv"
	"time"

	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
)

// Step is one unit of a job. A failing mandatory step ends the run; a
// failing best-effort step is logged and skipped.
type Step struct {
	Name      string
	Mandatory bool
	// Phase, when set, is published before the step runs.
	Phase models.Phase
	Run   func(ctx context.Context) error
}

// Runner executes steps in order.
type Runner struct {
	// SetPhase publishes phase changes. May be nil.
	SetPhase func(models.Phase)
	// Unwind runs exactly once after the last step, whatever the outcome,
	// including when a step panics. May be nil.
	Unwind func()
	Log    logger.Entry
}

// Run executes steps and returns the first mandatory failure as is.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	if r.Unwind != nil {
		defer r.Unwind()
	}

	for _, s := range steps {
		if s.Phase != "" && r.SetPhase != nil {
			r.SetPhase(s.Phase)
		}

		start := time.Now()
		err := s.Run(ctx)
		elapsed := time.Since(start)
		metrics.StepDuration.WithLabelValues(s.Name).Observe(elapsed.Seconds())

		if err == nil {
			r.Log.Debugf("Step %s finished in %s", s.Name, elapsed.Round(time.Millisecond))
			continue
		}

		metrics.StepFailures.WithLabelValues(s.Name, strconv.FormatBool(s.Mandatory)).Inc()
		if s.Mandatory {
			r.Log.Errorf("Step %s failed: %v", s.Name, err)
			return err
		}
		r.Log.Warnf("Step %s failed, continuing: %v", s.Name, err)
	}
	return nil
}
