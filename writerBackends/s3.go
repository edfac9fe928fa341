package writerbackends

import (
	"context"
	"fmt"
	"io"

	"vodforge/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 uploads through the multipart upload manager and presigns GETs.
type S3 struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	info      map[string]string
}

// NewS3 builds an S3 gateway from static credentials.
// accessInfo keys: accessKey, secretKey, region, optional endpoint (S3-compatible stores).
func NewS3(accessInfo map[string]string) (*S3, error) {
	if accessInfo["region"] == "" {
		return nil, fmt.Errorf("missing required accessInfo key: region")
	}
	opts := s3.Options{
		Region: accessInfo["region"],
	}
	if accessInfo["accessKey"] != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(accessInfo["accessKey"], accessInfo["secretKey"], "")
	}
	if endpoint := accessInfo["endpoint"]; endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}

	client := s3.New(opts)
	return &S3{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		info:      accessInfo,
	}, nil
}

// SignedDownloadURL presigns a GET for the object.
func (g *S3) SignedDownloadURL(ctx context.Context, bucket, key string) (string, error) {
	req, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(urlExpiry(g.info)))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s/%s: %v", ErrTransport, bucket, key, err)
	}
	return req.URL, nil
}

// Upload streams body to bucket/key.
func (g *S3) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	out, err := g.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload object %s to bucket %s: %v", ErrTransport, key, bucket, err)
	}

	logger.Debugf("Uploaded object '%s' to bucket '%s'", key, bucket)
	return out.Location, nil
}
