package reliability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3UploadAPI is the subset of the upload manager used by S3Uploader.
type S3UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader copies backup snapshots to an S3 bucket for off-site retention.
type S3Uploader struct {
	uploader S3UploadAPI
	bucket   string
	prefix   string
}

// S3UploaderOption configures an S3Uploader.
type S3UploaderOption func(*S3Uploader)

// WithUploadAPI sets a custom upload client (useful for testing).
func WithUploadAPI(api S3UploadAPI) S3UploaderOption {
	return func(u *S3Uploader) { u.uploader = api }
}

// NewS3Uploader creates an uploader for the given bucket.
// When accessKey is empty the default AWS credential chain is used.
func NewS3Uploader(ctx context.Context, bucket, region, prefix, accessKey, secretKey string, opts ...S3UploaderOption) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name required")
	}

	u := &S3Uploader{
		bucket: bucket,
		prefix: strings.TrimRight(prefix, "/"),
	}
	for _, o := range opts {
		o(u)
	}

	if u.uploader == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{}
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		if accessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		u.uploader = manager.NewUploader(s3.NewFromConfig(cfg))
	}

	return u, nil
}

// Upload streams a snapshot file to {prefix}/{key}.
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader) error {
	fullKey := strings.TrimLeft(u.prefix+"/"+key, "/")

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(fullKey),
		Body:        body,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to S3: %w", fullKey, err)
	}
	return nil
}
