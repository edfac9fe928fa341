package writerbackends

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"vodforge/logger"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS uploads through object writers and signs V4 GET URLs.
type GCS struct {
	client *storage.Client
	info   map[string]string
}

// NewGCS builds a GCS gateway. accessInfo key credentialsJSON holds a service
// account key, raw or base64 encoded; without it application default
// credentials are used.
func NewGCS(ctx context.Context, accessInfo map[string]string) (*GCS, error) {
	var opts []option.ClientOption
	if raw := accessInfo["credentialsJSON"]; raw != "" {
		credentialsJSON, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			credentialsJSON = []byte(raw)
		}
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCS{client: client, info: accessInfo}, nil
}

// SignedDownloadURL signs a V4 GET URL for the object.
func (g *GCS) SignedDownloadURL(ctx context.Context, bucket, key string) (string, error) {
	url, err := g.client.Bucket(bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(urlExpiry(g.info)),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("%w: sign %s/%s: %v", ErrTransport, bucket, key, err)
	}
	return url, nil
}

// Upload streams body into bucket/key.
func (g *GCS) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	wc := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, body); err != nil {
		wc.Close()
		return "", fmt.Errorf("%w: io.Copy %s: %v", ErrTransport, key, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("%w: Writer.Close %s: %v", ErrTransport, key, err)
	}

	logger.Debugf("Uploaded object '%s' to bucket '%s'", key, bucket)
	return fmt.Sprintf("gs://%s/%s", bucket, key), nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
