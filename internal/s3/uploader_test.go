package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"waste-collection-api-server/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUpload_ReturnsImageRef(t *testing.T) {
	put := &fakePutter{}
	u := NewUploaderWithClient(put, config.S3Config{Bucket: "waste", Region: "eu-west-2", KeyPrefix: "/pickups/"})
	u.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	ref, err := u.Upload(context.Background(), strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(ref.PublicID, "pickups/2024/03/") || !strings.HasSuffix(ref.PublicID, ".png") {
		t.Errorf("publicId = %s", ref.PublicID)
	}
	if ref.SecureURL != "https://waste.s3.eu-west-2.amazonaws.com/"+ref.PublicID {
		t.Errorf("secureUrl = %s", ref.SecureURL)
	}
	if *put.input.Key != ref.PublicID || *put.input.ContentType != "image/png" || put.body != "png-bytes" {
		t.Errorf("put input = %+v body=%q", put.input, put.body)
	}
}

func TestUpload_CloudFrontAndDefaults(t *testing.T) {
	u := NewUploaderWithClient(&fakePutter{}, config.S3Config{Bucket: "waste", CloudFrontDomain: "cdn.example"})
	ref, err := u.Upload(context.Background(), strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(ref.SecureURL, "https://cdn.example/") || !strings.HasSuffix(ref.PublicID, ".jpg") {
		t.Errorf("ref = %+v", ref)
	}
}

func TestUpload_Error(t *testing.T) {
	u := NewUploaderWithClient(&fakePutter{err: errors.New("denied")}, config.S3Config{Bucket: "waste"})
	if _, err := u.Upload(context.Background(), strings.NewReader("x"), "image/jpeg"); err == nil {
		t.Fatal("expected error")
	}
}
