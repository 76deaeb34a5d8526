package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store: драйвер поверх AWS S3. Логический бакет превращается в prefix+bucket,
// потому что имена бакетов S3 глобальны.
type S3Store struct {
	client       *s3.Client
	presign      *s3.PresignClient
	bucketPrefix string
	presignTTL   time.Duration
}

// NewS3Store загружает стандартную конфигурацию AWS (env, профиль, роль).
func NewS3Store(ctx context.Context, region, bucketPrefix string, presignTTL time.Duration) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось загрузить конфигурацию AWS: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	if presignTTL <= 0 {
		presignTTL = 24 * time.Hour
	}
	return &S3Store{
		client:       client,
		presign:      s3.NewPresignClient(client),
		bucketPrefix: bucketPrefix,
		presignTTL:   presignTTL,
	}, nil
}

func (s *S3Store) bucketName(bucket string) string {
	return s.bucketPrefix + bucket
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName(bucket)),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось загрузить в S3: %w", err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName(bucket)),
		Key:    aws.String(key),
	})
	var notFound *types.NoSuchKey
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("storage: не удалось удалить из S3: %w", err)
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, bucket, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName(bucket)),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("storage: не удалось подписать ссылку: %w", err)
	}
	return req.URL, nil
}
