package writerbackends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ErrTransport wraps every transfer failure reported by a backend.
var ErrTransport = errors.New("storage transport error")

// DefaultURLExpiry is how long signed download URLs stay valid.
const DefaultURLExpiry = time.Hour

// Gateway is the storage collaborator: it issues download URLs for stored
// objects and accepts uploads of produced artifacts.
type Gateway interface {
	SignedDownloadURL(ctx context.Context, bucket, key string) (string, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
}

// New builds the gateway for backendType ("s3", "gcs", "sftp", "directServe" or "memory").
// accessInfo carries backend-specific settings and credentials, the same way
// they are kept in the credentials store.
func New(ctx context.Context, backendType string, accessInfo map[string]string) (Gateway, error) {
	switch backendType {
	case "s3":
		return NewS3(accessInfo)
	case "gcs":
		return NewGCS(ctx, accessInfo)
	case "sftp":
		return NewSFTP(accessInfo)
	case "directServe":
		return NewDirectServe(accessInfo)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend type: %s", backendType)
	}
}

// urlExpiry reads "urlExpirySeconds" from accessInfo.
func urlExpiry(accessInfo map[string]string) time.Duration {
	if v := accessInfo["urlExpirySeconds"]; v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return DefaultURLExpiry
}
