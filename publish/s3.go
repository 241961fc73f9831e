package publish

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/randalmurphal/buildflow/artifact"
)

// S3Publisher uploads artifacts to S3-compatible object storage. Objects are
// keyed by prefix/package/build-tag/filename so a bucket can serve as a flat
// package archive.
type S3Publisher struct {
	// Endpoint is the S3 host, e.g. "s3.amazonaws.com" or a MinIO address.
	Endpoint string

	// AccessKey identifies the uploading principal. The secret key is the
	// publish token passed to Upload.
	AccessKey string

	Bucket string
	Prefix string
	Region string
	UseSSL bool
}

func (p *S3Publisher) Name() string { return "s3" }

// Upload stores the artifact in the bucket.
func (p *S3Publisher) Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if p.Endpoint == "" || p.Bucket == "" {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}

	client, err := minio.New(p.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(p.AccessKey, token, ""),
		Secure: p.UseSSL,
		Region: p.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	key := path.Join(p.Prefix, art.Package, art.BuildTag, art.Filename())

	_, err = client.StatObject(ctx, p.Bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return nil, ErrAlreadyPublished
	}

	_, err = client.FPutObject(ctx, p.Bucket, key, art.Path, minio.PutObjectOptions{
		ContentType: "application/x-tar",
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &Result{
		URL:        fmt.Sprintf("%s/%s/%s", client.EndpointURL(), p.Bucket, key),
		Channel:    p.Bucket,
		UploadedAt: time.Now(),
	}, nil
}
