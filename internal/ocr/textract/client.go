package textract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"docqa-backend/internal/ocr"
	"docqa-backend/internal/shared/telemetry"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 30
)

// API is the Textract surface the client depends on, swappable for test doubles.
type API interface {
	StartDocumentTextDetection(ctx context.Context, in *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, in *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

// Client runs asynchronous text detection against documents stored in S3.
type Client struct {
	api          API
	pollInterval time.Duration
	maxAttempts  int
}

// New constructs a Textract-backed OCR client.
func New(ctx context.Context, region string, pollInterval time.Duration, maxAttempts int) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(textract.NewFromConfig(cfg), pollInterval, maxAttempts), nil
}

// NewWithAPI constructs a client over an existing API, used by tests.
func NewWithAPI(api API, pollInterval time.Duration, maxAttempts int) *Client {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Client{
		api:          api,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// Extract starts a text detection job for the stored document and polls it
// to completion, returning LINE blocks joined by newlines in their original
// order.
func (c *Client) Extract(ctx context.Context, documentURL string) (string, error) {
	bucket, key, err := parseS3URL(documentURL)
	if err != nil {
		return "", err
	}

	jobID, err := c.start(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("start text detection bucket=%s key=%s: %w", bucket, key, err)
	}
	telemetry.Info("ocr.job_started", map[string]any{
		"job_id": jobID,
		"bucket": bucket,
		"key":    key,
	})

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		status, lines, statusMsg, err := c.poll(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("poll text detection job=%s: %w", jobID, err)
		}

		switch status {
		case types.JobStatusInProgress:
			continue
		case types.JobStatusSucceeded, types.JobStatusPartialSuccess:
			return strings.Join(lines, "\n"), nil
		case types.JobStatusFailed:
			if statusMsg != "" {
				return "", fmt.Errorf("%w: %s", ocr.ErrJobFailed, statusMsg)
			}
			return "", ocr.ErrJobFailed
		default:
			return "", fmt.Errorf("unexpected job status %q", status)
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ocr.ErrPollingTimeout, c.maxAttempts)
}

func (c *Client) start(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", err
	}
	if out.JobId == nil || *out.JobId == "" {
		return "", fmt.Errorf("empty job id")
	}
	return *out.JobId, nil
}

// poll fetches one status snapshot; on success it drains all result pages.
func (c *Client) poll(ctx context.Context, jobID string) (types.JobStatus, []string, string, error) {
	var (
		lines     []string
		nextToken *string
		status    types.JobStatus
		statusMsg string
	)

	for {
		out, err := c.api.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return "", nil, "", err
		}
		status = out.JobStatus
		if out.StatusMessage != nil {
			statusMsg = *out.StatusMessage
		}
		if status != types.JobStatusSucceeded && status != types.JobStatusPartialSuccess {
			return status, nil, statusMsg, nil
		}
		for _, block := range out.Blocks {
			if block.BlockType != types.BlockTypeLine {
				continue
			}
			if block.Text != nil {
				lines = append(lines, *block.Text)
			}
		}
		if out.NextToken == nil {
			return status, lines, statusMsg, nil
		}
		nextToken = out.NextToken
	}
}

// parseS3URL accepts s3://bucket/key and virtual-hosted https URLs.
func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse document url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "s3":
		bucket = u.Host
		key = strings.TrimPrefix(u.Path, "/")
	case "https", "http":
		host := u.Host
		idx := strings.Index(host, ".s3")
		if idx <= 0 {
			return "", "", fmt.Errorf("not an s3 url: %q", raw)
		}
		bucket = host[:idx]
		key = strings.TrimPrefix(u.Path, "/")
	default:
		return "", "", fmt.Errorf("unsupported document url scheme %q", u.Scheme)
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("incomplete s3 url: %q", raw)
	}
	return bucket, key, nil
}

var _ ocr.Client = (*Client)(nil)
