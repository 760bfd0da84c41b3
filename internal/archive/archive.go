// Package archive stores generated insight reports in S3 as JSON snapshots.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/pkg/logger"
)

var log = logger.With("component", "archive")

// ErrNotFound is returned by Get for an unknown snapshot id.
var ErrNotFound = errors.New("archive: snapshot not found")

// Config names the bucket. An empty Bucket disables archiving.
type Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Compress bool   `yaml:"compress"`
}

// Snapshot is one archived insights report.
type Snapshot struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	Filter    analytics.Filter         `json:"filter"`
	Insight   *insights.Result         `json:"insight"`
	Segments  *analytics.SegmentReport `json:"segments,omitempty"`
	AtRisk    []analytics.AtRiskDetail `json:"at_risk,omitempty"`
	Summary   *analytics.Summary       `json:"summary,omitempty"`
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Archive writes snapshots to s3://Bucket/Prefix<id>.json[.gz].
type S3Archive struct {
	client   s3API
	bucket   string
	prefix   string
	compress bool
	now      func() time.Time
}

// NewS3Archive loads AWS configuration for cfg.Region.
func NewS3Archive(ctx context.Context, cfg Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("report archive enabled", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "compress", cfg.Compress)
	return newS3Archive(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3Archive(client s3API, cfg Config) *S3Archive {
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Archive{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   prefix,
		compress: cfg.Compress,
		now:      time.Now,
	}
}

func (a *S3Archive) key(id string) string {
	if a.compress {
		return a.prefix + id + ".json.gz"
	}
	return a.prefix + id + ".json"
}

// Save assigns the snapshot an id and timestamp, then uploads it.
func (a *S3Archive) Save(ctx context.Context, snap *Snapshot) (string, error) {
	snap.ID = uuid.New().String()
	snap.CreatedAt = a.now().UTC()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(snap.ID)),
		ContentType: aws.String("application/json"),
	}
	if a.compress {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return "", fmt.Errorf("failed to compress snapshot: %w", err)
		}
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("failed to compress snapshot: %w", err)
		}
		data = buf.Bytes()
		input.ContentEncoding = aws.String("gzip")
	}
	input.Body = bytes.NewReader(data)

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", snap.ID, err)
	}
	log.Info("insight snapshot archived", "id", snap.ID, "bytes", len(data))
	return snap.ID, nil
}

// Get downloads a snapshot by id.
func (a *S3Archive) Get(ctx context.Context, id string) (*Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download snapshot %s: %w", id, err)
	}
	defer out.Body.Close()

	var r io.Reader = out.Body
	if a.compress {
		gz, err := gzip.NewReader(out.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress snapshot %s: %w", id, err)
		}
		defer gz.Close()
		r = gz
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// Ping verifies the bucket is reachable.
func (a *S3Archive) Ping(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("HeadBucket %s: %w", a.bucket, err)
	}
	return nil
}
