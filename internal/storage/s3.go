package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"collab-backend/internal/config"
)

// S3Service 파일 업로드/다운로드 서비스
type S3Service struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     *config.S3Config
}

// NewS3Service S3 클라이언트 초기화
func NewS3Service(cfg *config.S3Config) (*S3Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("[Storage] S3 service initialized (bucket: %s)", cfg.BucketName)

	return &S3Service{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// Upload stores the object under a unique key and returns that key. The
// original filename only survives in its extension; identity lives in the
// metadata record.
func (s *S3Service) Upload(ctx context.Context, data []byte, originalName, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := uuid.New().String() + filepath.Ext(originalName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", originalName, err)
	}

	log.Printf("[Storage] Uploaded %s -> %s (%d bytes)", originalName, key, len(data))
	return key, nil
}

// PresignDownload returns a time-limited download URL for a stored object.
func (s *S3Service) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.PresignExpiry)

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}

	return req.URL, expiresAt, nil
}

// Delete removes a stored object.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *S3Service) Bucket() string {
	return s.cfg.BucketName
}
