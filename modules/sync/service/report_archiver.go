package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
)

// s3ReportArchiver writes each finished run's JSON result to an S3 bucket
// under sync-runs/<timestamp>.json.
type s3ReportArchiver struct {
	client *s3.Client
	bucket string
}

// NewS3ReportArchiver returns nil when no report bucket is configured;
// callers treat a nil archiver as "archival disabled".
func NewS3ReportArchiver(cfg *config.Config) ReportArchiver {
	if cfg.Sync.ReportBucket == "" {
		return nil
	}

	awsCfg := aws.Config{Region: cfg.AWS.Region}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, "")
	}

	return &s3ReportArchiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Sync.ReportBucket,
	}
}

func (a *s3ReportArchiver) Archive(ctx context.Context, result *dto.SyncResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode sync result: %w", err)
	}

	key := fmt.Sprintf("sync-runs/%s.json", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload sync report: %w", err)
	}
	return nil
}
