package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vodforge/models"
)

type recorder struct {
	events []string
}

func (r *recorder) step(name string, mandatory bool, phase models.Phase, err error) Step {
	return Step{
		Name:      name,
		Mandatory: mandatory,
		Phase:     phase,
		Run: func(context.Context) error {
			r.events = append(r.events, name)
			return err
		},
	}
}

func (r *recorder) runner() *Runner {
	return &Runner{
		SetPhase: func(p models.Phase) { r.events = append(r.events, "phase:"+string(p)) },
		Unwind:   func() { r.events = append(r.events, "unwind") },
	}
}

func TestRunAllSteps(t *testing.T) {
	rec := &recorder{}
	err := rec.runner().Run(t.Context(), []Step{
		rec.step("a", true, models.PhaseConverting, nil),
		rec.step("b", true, "", nil),
		rec.step("c", true, models.PhaseUploading, nil),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "phase:converting,a,b,phase:uploading,c,unwind"
	if got := strings.Join(rec.events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestBestEffortFailureContinues(t *testing.T) {
	rec := &recorder{}
	err := rec.runner().Run(t.Context(), []Step{
		rec.step("thumb", false, "", errors.New("no frame")),
		rec.step("encode", true, "", nil),
	})
	if err != nil {
		t.Fatalf("best-effort failure should not fail the run: %v", err)
	}
	if got := strings.Join(rec.events, ","); got != "thumb,encode,unwind" {
		t.Errorf("events = %s", got)
	}
}

func TestMandatoryFailureAborts(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	err := rec.runner().Run(t.Context(), []Step{
		rec.step("encode", true, "", boom),
		rec.step("upload", true, models.PhaseUploading, nil),
	})
	if err != boom {
		t.Fatalf("error should be returned unmodified, got %v", err)
	}
	if got := strings.Join(rec.events, ","); got != "encode,unwind" {
		t.Errorf("events = %s", got)
	}
}

func TestUnwindOnPanic(t *testing.T) {
	unwound := 0
	r := &Runner{Unwind: func() { unwound++ }}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate")
			}
		}()
		r.Run(t.Context(), []Step{{Name: "bad", Mandatory: true, Run: func(context.Context) error {
			panic("engine exploded")
		}}})
	}()

	if unwound != 1 {
		t.Errorf("unwind ran %d times, want 1", unwound)
	}
}

func TestNilHooks(t *testing.T) {
	r := &Runner{}
	if err := r.Run(t.Context(), []Step{{Name: "a", Phase: models.PhaseConverting, Run: func(context.Context) error { return nil }}}); err != nil {
		t.Fatal(err)
	}
}
