// server/internal/s3/uploader.go
package s3

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/models"
)

// ObjectPutter is the part of *s3.Client the uploader uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores pickup images in a bucket and hands back the reference
// saved on the pickup.
type Uploader struct {
	Client           ObjectPutter
	Bucket           string
	Region           string
	CloudFrontDomain string
	KeyPrefix        string
	now              func() time.Time
}

func NewUploader(ctx context.Context, cfg config.S3Config) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewUploaderWithClient(s3.NewFromConfig(sdkConfig), cfg), nil
}

// NewUploaderWithClient builds an Uploader around an existing client.
func NewUploaderWithClient(client ObjectPutter, cfg config.S3Config) *Uploader {
	return &Uploader{
		Client:           client,
		Bucket:           cfg.Bucket,
		Region:           cfg.Region,
		CloudFrontDomain: cfg.CloudFrontDomain,
		KeyPrefix:        strings.Trim(cfg.KeyPrefix, "/"),
		now:              time.Now,
	}
}

// Upload stores body under a fresh key. publicId is the object key and
// secureUrl its public https address.
func (u *Uploader) Upload(ctx context.Context, body io.Reader, contentType string) (models.ImageRef, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := u.objectKey(contentType)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return models.ImageRef{PublicID: key, SecureURL: u.URL(key)}, nil
}

// URL returns the public address of key, through CloudFront when configured.
func (u *Uploader) URL(key string) string {
	if u.CloudFrontDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.CloudFrontDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, key)
}

func (u *Uploader) objectKey(contentType string) string {
	ext := ".jpg"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
		if contentType == "image/jpeg" {
			ext = ".jpg"
		}
	}
	return path.Join(u.KeyPrefix, u.now().UTC().Format("2006/01"), uuid.NewString()+ext)
}
