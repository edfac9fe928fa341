package job

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"vodforge/download"
	"vodforge/logger"
	writerbackends "vodforge/writerBackends"
)

// Fetched is a source materialized inside a job's working directory.
type Fetched struct {
	Path string
	// URL is where the source can be read from outside this process.
	URL string
}

// Source places the object's original file into dir.
type Source interface {
	Fetch(ctx context.Context, objectID, dir string) (Fetched, error)
}

// SourceFilename is the local name of a job's source file.
func SourceFilename(objectID string) string {
	return objectID + ".mp4"
}

// RemoteSource downloads a previously stored object through a signed URL.
type RemoteSource struct {
	Gateway writerbackends.Gateway
	Bucket  string
	// Prefix is prepended to the object id to form the stored key.
	Prefix  string
	Timeout time.Duration
}

func (s *RemoteSource) Fetch(ctx context.Context, objectID, dir string) (Fetched, error) {
	key := path.Join(s.Prefix, objectID)
	url, err := s.Gateway.SignedDownloadURL(ctx, s.Bucket, key)
	if err != nil {
		return Fetched{}, fmt.Errorf("sign %s: %w", key, err)
	}

	dest := filepath.Join(dir, SourceFilename(objectID))
	if _, err := download.Fetch(ctx, url, dest, s.Timeout); err != nil {
		return Fetched{}, err
	}
	return Fetched{Path: dest, URL: url}, nil
}

// LocalSource uses a file already on this machine. It is hard-linked into
// the job directory when possible and copied otherwise, so cleanup never
// touches the original.
type LocalSource struct {
	Path string
}

func (s *LocalSource) Fetch(ctx context.Context, objectID, dir string) (Fetched, error) {
	abs, err := filepath.Abs(s.Path)
	if err != nil {
		return Fetched{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return Fetched{}, fmt.Errorf("source %s: %w", abs, err)
	}

	dest := filepath.Join(dir, SourceFilename(objectID))
	if err := os.Link(abs, dest); err != nil {
		logger.Debugf("Hard link of %s failed, copying: %v", abs, err)
		if err := copyFile(abs, dest); err != nil {
			return Fetched{}, fmt.Errorf("%w: copy source: %v", ErrResource, err)
		}
	}
	return Fetched{Path: dest, URL: "file://" + filepath.ToSlash(abs)}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
