// Package storage archives completed-scan snapshots to S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
}

// SnapshotStore uploads scan snapshot documents to S3-compatible storage.
// The dashboard's heatmap renderer reads these instead of re-querying the
// per-point result tables.
type SnapshotStore struct {
	client *s3.Client
	bucket string
}

// NewSnapshotStore creates a new S3 snapshot store
func NewSnapshotStore(cfg S3Config) (*SnapshotStore, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	return &SnapshotStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ArchiveScan uploads the snapshot as JSON under a date-partitioned key.
// Re-archiving the same scan overwrites the earlier object.
func (s *SnapshotStore) ArchiveScan(ctx context.Context, snap service.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	completedAt := time.Now()
	if snap.Scan.CompletedAt != nil {
		completedAt = *snap.Scan.CompletedAt
	}
	key := fmt.Sprintf("scans/%s/%s.json", completedAt.Format("2006/01/02"), snap.Scan.ID)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot to s3: %w", err)
	}

	return nil
}
