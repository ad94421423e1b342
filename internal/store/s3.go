package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vodhub/internal/config"
)

// S3 stores artifacts in an S3-compatible bucket via MinIO. Object PUTs are
// atomic on the object level, which gives the same no-partial-reads
// guarantee the local backend gets from rename. minio.Object is seekable,
// so range streaming works against this backend too.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 connects to the endpoint and ensures the bucket exists.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &S3{client: client, bucket: cfg.BucketName}, nil
}

func (s *S3) Put(ctx context.Context, videoID, name, localPath string) (string, error) {
	key := Key(videoID, name)

	contentType := "video/mp4"
	if strings.HasSuffix(name, ".jpg") {
		contentType = "image/jpeg"
	}

	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	return key, nil
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadSeekCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open artifact: %w", err)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to stat artifact: %w", err)
	}

	return obj, info.Size, nil
}

func (s *S3) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

func (s *S3) RemoveVideo(ctx context.Context, videoID string) error {
	prefix := Key(videoID, "") + "/"

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list artifacts: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove artifact %s: %w", obj.Key, err)
		}
	}

	return nil
}
