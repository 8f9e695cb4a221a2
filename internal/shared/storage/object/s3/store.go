package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"

	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

// API is the S3 surface the store depends on, swappable for test doubles.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store implements ObjectStore using Amazon S3. One store is shared by all
// pipeline goroutines; region is guarded because a corrective retry may
// rewrite it while other uploads read it.
type Store struct {
	api    API
	bucket string
	prefix string

	mu     sync.Mutex
	region string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, region, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		api:    s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: normalizePrefix(prefix),
		region: cfg.Region,
	}, nil
}

// NewWithAPI creates a store over an existing API client, used by tests.
func NewWithAPI(api API, region, bucket, prefix string) *Store {
	return &Store{
		api:    api,
		bucket: bucket,
		prefix: normalizePrefix(prefix),
		region: region,
	}
}

// Upload writes the staged file to S3 under a fresh uuid-based key and
// returns its virtual-hosted URL. On a region-mismatch redirect it probes
// the bucket's true region and retries the upload exactly once.
func (s *Store) Upload(ctx context.Context, localPath string, fileName string) (object.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return object.StoredObject{}, err
	}

	if _, err := util.SanitizeFileName(fileName); err != nil {
		return object.StoredObject{}, fmt.Errorf("sanitize file name: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return object.StoredObject{}, fmt.Errorf("read staged file: %w", err)
	}

	key := applyPrefix(s.prefix, uuid.NewString()+filepath.Ext(fileName))
	contentType := sniffContentType(data, fileName)
	region := s.currentRegion()

	if err := s.put(ctx, key, contentType, data, ""); err != nil {
		if !isRegionMismatch(err) {
			return object.StoredObject{}, fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, key, err)
		}

		actual, probeErr := s.bucketRegion(ctx)
		if probeErr != nil {
			return object.StoredObject{}, fmt.Errorf("s3 region probe bucket=%s: %w", s.bucket, probeErr)
		}
		telemetry.Warn("s3.region_mismatch", map[string]any{
			"bucket":     s.bucket,
			"configured": region,
			"actual":     actual,
		})
		if retryErr := s.put(ctx, key, contentType, data, actual); retryErr != nil {
			return object.StoredObject{}, fmt.Errorf("s3 put object bucket=%s key=%s region=%s: %w", s.bucket, key, actual, retryErr)
		}
		s.rememberRegion(actual)
		region = actual
	}

	return object.StoredObject{
		URL:    fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, region, key),
		Bucket: s.bucket,
		Key:    key,
	}, nil
}

func (s *Store) currentRegion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

func (s *Store) rememberRegion(region string) {
	s.mu.Lock()
	s.region = region
	s.mu.Unlock()
}

func (s *Store) put(ctx context.Context, key, contentType string, data []byte, regionOverride string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	var optFns []func(*s3.Options)
	if regionOverride != "" {
		optFns = append(optFns, func(o *s3.Options) { o.Region = regionOverride })
	}
	_, err := s.api.PutObject(ctx, input, optFns...)
	return err
}

// bucketRegion resolves the bucket's actual region via a HeadBucket probe.
// S3 reports the region even when the probe itself is redirected.
func (s *Store) bucketRegion(ctx context.Context) (string, error) {
	out, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil && out.BucketRegion != nil && *out.BucketRegion != "" {
		return *out.BucketRegion, nil
	}
	if region := regionFromError(err); region != "" {
		return region, nil
	}
	if err != nil {
		return "", err
	}
	return "", errors.New("head bucket returned no region")
}

func isRegionMismatch(err error) bool {
	if err == nil {
		return false
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code == http.StatusMovedPermanently || code == http.StatusTemporaryRedirect {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "PermanentRedirect") || strings.Contains(msg, "AuthorizationHeaderMalformed")
}

func regionFromError(err error) string {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.Header.Get("x-amz-bucket-region")
	}
	return ""
}

func sniffContentType(data []byte, fileName string) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	detected := http.DetectContentType(data[:n])
	// DetectContentType cannot tell DOCX from plain zip.
	if detected == "application/zip" && strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return detected
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

var _ object.ObjectStore = (*Store)(nil)
