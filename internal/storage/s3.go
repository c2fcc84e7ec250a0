package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Foullane-Mohamed/ProSets/internal/config"
	"github.com/Foullane-Mohamed/ProSets/internal/logger"
)

// URLExpiry is how long issued presigned URLs stay valid, for both uploads
// and downloads.
const URLExpiry = 5 * time.Minute

// Presigner issues time-boxed S3 URLs. It never reads or proxies object
// bytes; callers hand the URL straight to the client.
type Presigner struct {
	presign *s3.PresignClient
	bucket  string
	log     *logger.Logger
}

func New(ctx context.Context, cfg config.S3Config, log *logger.Logger) (*Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	log.Info("STORAGE", fmt.Sprintf("S3 presigner ready for bucket %s", cfg.Bucket))

	return &Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		log:     log,
	}, nil
}

// UploadURL issues a presigned PUT URL for a new object.
func (p *Presigner) UploadURL(ctx context.Context, key, contentType string) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		p.log.Error("STORAGE", fmt.Sprintf("Failed to presign upload for key %s: %v", key, err))
		return "", fmt.Errorf("failed to presign upload URL: %w", err)
	}
	return req.URL, nil
}

// DownloadURL issues a presigned GET URL for an existing object.
func (p *Presigner) DownloadURL(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(URLExpiry))
	if err != nil {
		p.log.Error("STORAGE", fmt.Sprintf("Failed to presign download for key %s: %v", key, err))
		return "", fmt.Errorf("failed to presign download URL: %w", err)
	}
	return req.URL, nil
}
