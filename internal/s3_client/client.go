package s3_client

import (
	"context"
	"notebookeval/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// New builds an S3 client for the report archive. An explicit endpoint
// (MinIO and friends) switches to path-style addressing.
func New(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*s3Config.LoadOptions) error{s3Config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKeyID,
				cfg.S3SecretAccessKey,
				"",
			),
		))
	}
	s3Cfg, err := s3Config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s3Client := s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3Client, nil
}
