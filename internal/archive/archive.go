package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectAPI is the part of *s3.Client the archive uses.
type ObjectAPI interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores a copy of every generated CSV report in a bucket.
type S3Archive struct {
	client ObjectAPI
	bucket *string
}

func NewS3Archive(ctx context.Context, client ObjectAPI, bucketName string) (*S3Archive, error) {
	a := &S3Archive{client: client, bucket: aws.String(bucketName)}
	return a, a.createBucket(ctx, bucketName)
}

// Key is reports/<folder>/<student>/<generated-at>_<report id>.csv.
func Key(r *model.Report) string {
	return path.Join("reports", r.FolderID, r.Student.Name,
		r.GeneratedAt.UTC().Format("20060102T150405Z")+"_"+r.ID+".csv")
}

func (a *S3Archive) Store(ctx context.Context, r *model.Report, csv []byte) (string, error) {
	key := Key(r)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      a.bucket,
		Key:         aws.String(key),
		Body:        bytes.NewReader(csv),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"report-id":  r.ID,
			"student-id": r.Student.ID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}
	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Info(ctx, "report archived", zap.String("bucket", *a.bucket), zap.String("key", key))
	}
	return key, nil
}

func (a *S3Archive) createBucket(ctx context.Context, name string) error {
	_, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	if err != nil {
		var opErr *awshttp.ResponseError
		if errors.As(err, &opErr) && opErr.HTTPStatusCode() == http.StatusConflict {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Info(ctx, "Bucket already exists", zap.String("bucket", name))
			}
			return nil
		}
	}
	return err
}
