package writerbackends

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vodforge/logger"
)

// DirectServe stores artifacts on the local filesystem below baseDir; the
// HTTP server exposes that directory under /files/.
type DirectServe struct {
	baseDir   string
	publicURL string
}

// NewDirectServe builds a local gateway. accessInfo keys: baseDir (required),
// publicURL (e.g. "http://localhost:8080").
func NewDirectServe(accessInfo map[string]string) (*DirectServe, error) {
	baseDir := accessInfo["baseDir"]
	if baseDir == "" {
		return nil, fmt.Errorf("missing required accessInfo key: baseDir")
	}
	return &DirectServe{
		baseDir:   baseDir,
		publicURL: strings.TrimSuffix(accessInfo["publicURL"], "/"),
	}, nil
}

// BaseDir is the directory served under /files/.
func (g *DirectServe) BaseDir() string {
	return g.baseDir
}

func (g *DirectServe) localPath(bucket, key string) (string, error) {
	clean := path.Clean("/" + path.Join(bucket, key))
	if clean == "/" {
		return "", fmt.Errorf("empty object key")
	}
	return filepath.Join(g.baseDir, filepath.FromSlash(clean)), nil
}

func (g *DirectServe) url(bucket, key string) string {
	u := url.URL{Path: path.Join("/files", bucket, key)}
	return g.publicURL + u.EscapedPath()
}

// SignedDownloadURL returns the public URL of an existing object.
func (g *DirectServe) SignedDownloadURL(ctx context.Context, bucket, key string) (string, error) {
	p, err := g.localPath(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: object %s/%s: %v", ErrTransport, bucket, key, err)
	}
	return g.url(bucket, key), nil
}

// Upload writes body to baseDir/bucket/key.
func (g *DirectServe) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	fullPath, err := g.localPath(bucket, key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directories: %v", ErrTransport, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create file %s: %v", ErrTransport, fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return "", fmt.Errorf("%w: failed to write to file %s: %v", ErrTransport, fullPath, err)
	}

	logger.Debugf("Saved '%s' to '%s'", key, fullPath)
	return g.url(bucket, key), nil
}
