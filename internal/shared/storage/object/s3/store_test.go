package s3

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeAPI struct {
	putCalls   int
	headCalls  int
	putErrs    []error
	putRegions []string
	headRegion string
	headErr    error
}

func (f *fakeAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	opts := awss3.Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.putRegions = append(f.putRegions, opts.Region)
	f.putCalls++
	if f.putCalls <= len(f.putErrs) {
		return nil, f.putErrs[f.putCalls-1]
	}
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeAPI) HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	f.headCalls++
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &awss3.HeadBucketOutput{BucketRegion: aws.String(f.headRegion)}, nil
}

func redirectError(region string) error {
	resp := &http.Response{
		StatusCode: http.StatusMovedPermanently,
		Header:     http.Header{},
	}
	resp.Header.Set("x-amz-bucket-region", region)
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: resp},
		Err:      fmt.Errorf("PermanentRedirect"),
	}
}

func stageFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	return path
}

func TestUploadSuccess(t *testing.T) {
	api := &fakeAPI{}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "uploads")

	path := stageFile(t, "notes.txt", "hello world")
	obj, err := store.Upload(context.Background(), path, "notes.txt")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if api.putCalls != 1 {
		t.Fatalf("expected 1 put call, got %d", api.putCalls)
	}
	if api.headCalls != 0 {
		t.Fatalf("expected no head calls, got %d", api.headCalls)
	}
	if obj.Bucket != "docs-bucket" {
		t.Fatalf("unexpected bucket %q", obj.Bucket)
	}
	if !strings.HasPrefix(obj.Key, "uploads/") || !strings.HasSuffix(obj.Key, ".txt") {
		t.Fatalf("unexpected key %q", obj.Key)
	}
	if !strings.Contains(obj.URL, "docs-bucket.s3.us-east-1.amazonaws.com") {
		t.Fatalf("unexpected url %q", obj.URL)
	}
}

func TestUploadUniqueKeys(t *testing.T) {
	api := &fakeAPI{}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")
	first, err := store.Upload(context.Background(), path, "notes.txt")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := store.Upload(context.Background(), path, "notes.txt")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("expected distinct keys, both %q", first.Key)
	}
}

func TestUploadRegionMismatchRecovers(t *testing.T) {
	api := &fakeAPI{
		putErrs:    []error{redirectError("eu-west-1")},
		headRegion: "eu-west-1",
	}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")
	obj, err := store.Upload(context.Background(), path, "notes.txt")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if api.putCalls != 2 {
		t.Fatalf("expected 2 put calls, got %d", api.putCalls)
	}
	if api.headCalls != 1 {
		t.Fatalf("expected 1 head call, got %d", api.headCalls)
	}
	if api.putRegions[1] != "eu-west-1" {
		t.Fatalf("retry should target eu-west-1, got %q", api.putRegions[1])
	}
	if !strings.Contains(obj.URL, "s3.eu-west-1.amazonaws.com") {
		t.Fatalf("url should use corrected region, got %q", obj.URL)
	}
}

func TestUploadRegionMismatchSecondFailureIsTerminal(t *testing.T) {
	api := &fakeAPI{
		putErrs:    []error{redirectError("eu-west-1"), fmt.Errorf("AccessDenied")},
		headRegion: "eu-west-1",
	}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")
	if _, err := store.Upload(context.Background(), path, "notes.txt"); err == nil {
		t.Fatal("expected terminal error after second failure")
	}
	if api.putCalls != 2 {
		t.Fatalf("expected exactly 2 put calls, got %d", api.putCalls)
	}
}

func TestUploadRegionFromHeadBucketError(t *testing.T) {
	api := &fakeAPI{
		putErrs: []error{redirectError("ap-southeast-2")},
		headErr: redirectError("ap-southeast-2"),
	}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")
	obj, err := store.Upload(context.Background(), path, "notes.txt")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(obj.URL, "s3.ap-southeast-2.amazonaws.com") {
		t.Fatalf("url should use region from redirect header, got %q", obj.URL)
	}
}

// racingAPI is safe for concurrent use and redirects every third
// non-overridden put, forcing the region-recovery path while other uploads
// are in flight.
type racingAPI struct {
	mu       sync.Mutex
	puts     int
	heads    int
	region   string
	redirect int
}

func (f *racingAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	opts := awss3.Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if opts.Region == "" && f.redirect > 0 && f.puts%f.redirect == 0 {
		return nil, redirectError(f.region)
	}
	return &awss3.PutObjectOutput{}, nil
}

func (f *racingAPI) HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads++
	return &awss3.HeadBucketOutput{BucketRegion: aws.String(f.region)}, nil
}

func TestUploadConcurrentRegionRecovery(t *testing.T) {
	api := &racingAPI{region: "eu-west-1", redirect: 3}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")

	var wg sync.WaitGroup
	urls := make(chan string, 8*50)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				obj, err := store.Upload(context.Background(), path, "notes.txt")
				if err != nil {
					t.Errorf("upload: %v", err)
					return
				}
				urls <- obj.URL
			}
		}()
	}
	wg.Wait()
	close(urls)

	for url := range urls {
		if !strings.Contains(url, "s3.us-east-1.amazonaws.com") && !strings.Contains(url, "s3.eu-west-1.amazonaws.com") {
			t.Fatalf("url has corrupted region: %q", url)
		}
	}
}

func TestUploadNonRedirectErrorNotRetried(t *testing.T) {
	api := &fakeAPI{putErrs: []error{fmt.Errorf("NoSuchBucket")}}
	store := NewWithAPI(api, "us-east-1", "docs-bucket", "")

	path := stageFile(t, "notes.txt", "hello")
	if _, err := store.Upload(context.Background(), path, "notes.txt"); err == nil {
		t.Fatal("expected error")
	}
	if api.putCalls != 1 {
		t.Fatalf("expected no retry, got %d put calls", api.putCalls)
	}
}
