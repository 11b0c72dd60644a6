// Package archive uploads finalized receipts to S3-compatible object storage
// for long-term retention.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	appconfig "pos-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Archiver struct {
	client *s3.Client
	bucket string
}

// New builds an archiver from config. Returns nil when archiving is disabled;
// a nil archiver is safe to call and does nothing.
func New(cfg *appconfig.Config) *Archiver {
	if !cfg.Archive.Enabled {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Archive.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Archive.AccessKey, cfg.Archive.SecretKey, "")),
	)
	if err != nil {
		log.Printf("[Archive] Disabled, config load failed: %v", err)
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
		}
	})

	return &Archiver{client: client, bucket: cfg.Archive.Bucket}
}

// StoreReceipt uploads a rendered receipt PDF keyed by receipt number
func (a *Archiver) StoreReceipt(ctx context.Context, receiptNumber string, pdf []byte) error {
	if a == nil {
		return nil
	}

	key := fmt.Sprintf("receipts/%s/%s.pdf", time.Now().Format("2006/01"), receiptNumber)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive receipt %s: %w", receiptNumber, err)
	}

	log.Printf("[Archive] Stored receipt %s", key)
	return nil
}
