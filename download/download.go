package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vodforge/logger"
	"vodforge/metrics"

	"github.com/dustin/go-humanize"
)

// DefaultTimeout bounds a whole source download.
const DefaultTimeout = 5 * time.Minute

// ErrTransport wraps network failures and non-2xx responses.
var ErrTransport = errors.New("download failed")

// Fetch streams url into dest. The whole transfer, body included, must
// finish within timeout (DefaultTimeout when zero). A partial file is
// removed on failure.
func Fetch(ctx context.Context, url, dest string, timeout time.Duration) (int64, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	metrics.DownloadedBytes.Add(float64(n))
	logger.Infof("Downloaded %s to %s in %s", humanize.Bytes(uint64(n)), dest, time.Since(start).Round(time.Millisecond))
	return n, nil
}
