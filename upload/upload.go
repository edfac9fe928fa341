package upload

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vodforge/logger"
	"vodforge/metrics"
	"vodforge/models"
	writerbackends "vodforge/writerBackends"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Concurrency is the number of files in flight at once.
const Concurrency = 5

const (
	PlaylistContentType = "application/vnd.apple.mpegurl"
	SegmentContentType  = "video/MP2T"
)

// ContentType picks the content type for a produced HLS file.
func ContentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".m3u8") {
		return PlaylistContentType
	}
	return SegmentContentType
}

// Coordinator mirrors a local directory tree into the storage gateway.
type Coordinator struct {
	Gateway writerbackends.Gateway
	Bucket  string
}

// Tasks walks root and returns one task per regular file, keyed under prefix.
func Tasks(root, prefix string) ([]models.UploadTask, error) {
	var tasks []models.UploadTask
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		tasks = append(tasks, models.UploadTask{
			LocalPath:   p,
			RemoteKey:   path.Join(prefix, filepath.ToSlash(rel)),
			ContentType: ContentType(p),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return tasks, nil
}

// UploadTree uploads every regular file below root and returns how many were
// sent. It fails with the first transfer error: transfers already running
// are allowed to finish, queued ones are not started.
func (c *Coordinator) UploadTree(ctx context.Context, root, prefix string) (int, error) {
	tasks, err := Tasks(root, prefix)
	if err != nil {
		return 0, err
	}

	logger.Infof("Uploading %d files from %s to %s", len(tasks), root, prefix)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Concurrency)
	for _, task := range tasks {
		g.Go(func() error {
			if gctx.Err() != nil {
				logger.Debugf("Skipping %s, upload already failed", task.RemoteKey)
				return nil
			}
			// in-flight transfers keep the caller's context so a sibling
			// failure does not abort them midway
			return c.send(ctx, task)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func (c *Coordinator) send(ctx context.Context, task models.UploadTask) error {
	f, err := os.Open(task.LocalPath)
	if err != nil {
		metrics.UploadedFiles.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to open %s: %w", task.LocalPath, err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	if _, err := c.Gateway.Upload(ctx, c.Bucket, task.RemoteKey, f, task.ContentType); err != nil {
		metrics.UploadedFiles.WithLabelValues("failed").Inc()
		return fmt.Errorf("upload %s: %w", task.RemoteKey, err)
	}

	metrics.UploadedFiles.WithLabelValues("ok").Inc()
	metrics.UploadedBytes.Add(float64(size))
	logger.Debugf("Uploaded %s (%s)", task.RemoteKey, humanize.Bytes(uint64(size)))
	return nil
}
