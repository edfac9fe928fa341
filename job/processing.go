package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"vodforge/cleanup"
	"vodforge/engine"
	"vodforge/hls"
	"vodforge/ladder"
	"vodforge/lease"
	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
	"vodforge/pipeline"
	"vodforge/sprite"
	"vodforge/status"
	"vodforge/thumbnail"
	"vodforge/upload"
	writerbackends "vodforge/writerBackends"
)

// ErrResource wraps failures to create the job's local working state.
var ErrResource = errors.New("resource error")

// Orchestrator runs the whole conversion of one object: thumbnail, sprite
// sheet, HLS ladder, manifest and upload, then cleans up local state.
type Orchestrator struct {
	Engine  engine.Engine
	Gateway writerbackends.Gateway
	Bucket  string
	Layout  models.Layout
	Status  *status.Register
	Leases  *lease.Manager

	// EncodeWorkers bounds concurrent tier encodes; 1 is sequential.
	EncodeWorkers int
	Complexity    float64
}

// RemotePrefix is where all artifacts of objectID are uploaded.
func RemotePrefix(objectID string) string {
	return path.Join(models.RemotePrefix, objectID)
}

// Run converts the object named rawID. The id is sanitized first; a second
// Run for an id that is still in progress fails with lease.ErrBusy. Any
// fatal step error is returned as is, with the job in the error phase.
// Local working state is removed whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, rawID string, src Source) (*models.ConversionJob, error) {
	id, err := SanitizeID(rawID)
	if err != nil {
		return nil, err
	}

	l, err := o.Leases.Acquire(id)
	if err != nil {
		if errors.Is(err, lease.ErrBusy) {
			metrics.JobsRejected.Inc()
		}
		return nil, err
	}

	log := logger.With(map[string]any{"job": id, "lease": l.Token})
	job := &models.ConversionJob{ObjectID: id}
	if o.Status.Begin(id) {
		job.Phase = models.PhaseConverting
	}
	setPhase := func(p models.Phase) {
		if o.Status.Set(id, p) {
			job.Phase = p
			log.Debugf("Phase %s", p)
		}
	}

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()
	start := time.Now()

	// A panicking step still leaves the job in a terminal phase.
	defer func() {
		if p := recover(); p != nil {
			setPhase(models.PhaseError)
			metrics.JobsTotal.WithLabelValues(string(models.PhaseError)).Inc()
			panic(p)
		}
	}()

	cleaner := &cleanup.Coordinator{Layout: o.Layout, Leases: o.Leases}
	runner := &pipeline.Runner{
		SetPhase: setPhase,
		Unwind: func() {
			cleaner.Run(id, job.SourcePath)
			l.Release()
		},
		Log: log,
	}

	log.Infof("Starting conversion of %s", id)
	if err := runner.Run(ctx, o.steps(job, src, log)); err != nil {
		setPhase(models.PhaseError)
		metrics.JobsTotal.WithLabelValues(string(models.PhaseError)).Inc()
		log.Errorf("Conversion failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return job, err
	}

	metrics.JobsTotal.WithLabelValues(string(models.PhaseCompleted)).Inc()
	log.Infof("Conversion finished in %s: %d variants", time.Since(start).Round(time.Millisecond), len(job.Variants))
	return job, nil
}

func (o *Orchestrator) steps(job *models.ConversionJob, src Source, log logger.Entry) []pipeline.Step {
	id := job.ObjectID
	jobDir := o.Layout.JobDir(id)
	hlsDir := o.Layout.HLSDir(id)
	var width, height int

	return []pipeline.Step{
		{
			Name: "workspace", Mandatory: true,
			Run: func(ctx context.Context) error {
				for _, dir := range []string{jobDir, hlsDir} {
					if err := os.MkdirAll(dir, 0755); err != nil {
						return fmt.Errorf("%w: create %s: %v", ErrResource, dir, err)
					}
				}
				return nil
			},
		},
		{
			Name: "source", Mandatory: true,
			Run: func(ctx context.Context) error {
				fetched, err := src.Fetch(ctx, id, jobDir)
				if err != nil {
					return err
				}
				job.SourcePath = fetched.Path
				job.SourceURL = fetched.URL
				return nil
			},
		},
		{
			Name: "thumbnail",
			Run: func(ctx context.Context) error {
				local, err := thumbnail.Generate(ctx, o.Engine, job.SourcePath, id, thumbnail.Options{OutputDir: jobDir})
				if err != nil {
					return err
				}
				f, err := os.Open(local)
				if err != nil {
					return err
				}
				defer f.Close()

				key := path.Join(RemotePrefix(id), thumbnail.Filename(id))
				if _, err := o.Gateway.Upload(ctx, o.Bucket, key, f, "image/jpeg"); err != nil {
					return err
				}
				job.ThumbnailKey = key
				return nil
			},
		},
		{
			Name: "sprite",
			Run: func(ctx context.Context) error {
				gen := &sprite.Generator{
					Engine:  o.Engine,
					Gateway: o.Gateway,
					Bucket:  o.Bucket,
					Prefix:  models.RemotePrefix,
					WorkDir: o.Layout.Root,
				}
				key, err := gen.Generate(ctx, job.SourcePath, id)
				if err != nil {
					return err
				}
				job.SpriteKey = key
				return nil
			},
		},
		{
			Name: "probe", Mandatory: true,
			Run: func(ctx context.Context) error {
				res, err := o.Engine.Probe(ctx, job.SourcePath)
				if err != nil {
					return err
				}
				v, ok := res.FirstVideo()
				if !ok || v.Width <= 0 || v.Height <= 0 {
					return fmt.Errorf("%w: %s", engine.ErrNoVideoStream, job.SourcePath)
				}
				width, height = v.Width, v.Height
				log.Infof("Source is %dx%d, %.1fs", width, height, res.Duration)
				return nil
			},
		},
		{
			Name: "encode", Mandatory: true,
			Run: func(ctx context.Context) error {
				plan := ladder.Plan(width, height, o.Complexity)
				enc := &hls.Encoder{Engine: o.Engine, Workers: o.EncodeWorkers}
				variants, err := enc.EncodeAll(ctx, job.SourcePath, hlsDir, plan)
				if err != nil {
					return err
				}
				job.Variants = variants
				return nil
			},
		},
		{
			Name: "manifest", Mandatory: true,
			Run: func(ctx context.Context) error {
				_, err := hls.WriteMaster(hlsDir, job.Variants)
				return err
			},
		},
		{
			Name: "upload", Mandatory: true, Phase: models.PhaseUploading,
			Run: func(ctx context.Context) error {
				c := &upload.Coordinator{Gateway: o.Gateway, Bucket: o.Bucket}
				n, err := c.UploadTree(ctx, hlsDir, RemotePrefix(id))
				if err != nil {
					return err
				}
				log.Infof("Uploaded %d files", n)
				return nil
			},
		},
		{
			Name: "complete", Mandatory: true, Phase: models.PhaseCompleted,
			Run: func(ctx context.Context) error { return nil },
		},
	}
}
