// Package objectstore uploads a rendered workbook and returns a signed URL,
// standing in for the original's Firebase Storage upload (spec §5, §6).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const signedURLExpiry = 1 * time.Hour

// Uploader is the external collaborator interface: upload bytes under a
// key and return a time-limited signed URL. The upload is never retried.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// S3Uploader is the production Uploader, backed by the AWS SDK v2 S3
// client.
type S3Uploader struct {
	Client *s3.Client
	Bucket string
}

// Upload writes data to key and returns a presigned GET URL valid for one
// hour.
func (u S3Uploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if _, err := manager.NewUploader(u.Client).Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return "", fmt.Errorf("failed to upload workbook %q: %w", key, err)
	}

	presignClient := s3.NewPresignClient(u.Client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(signedURLExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign workbook url for %q: %w", key, err)
	}
	return req.URL, nil
}

// Key builds the fixed persisted-state path from spec §6:
// sonuclar/nobet_{year}_{month}_{unix-seconds}.xlsx.
func Key(year, month int, unixSeconds int64) string {
	return fmt.Sprintf("sonuclar/nobet_%d_%d_%d.xlsx", year, month, unixSeconds)
}
