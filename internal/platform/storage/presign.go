// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package storage issues presigned upload URLs against an S3-compatible bucket.

Clients upload directly to the bucket; the API only hands out a short-lived
PUT URL and the object key to store on the owning record.
*/
package storage

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/pkg/uuid"
)

// uploadExpiry is how long a presigned PUT URL stays valid.
const uploadExpiry = 15 * time.Minute

// Options configures a [Presigner]. An empty Bucket disables uploads.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Upload is a presigned PUT URL and the object key it writes to.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner signs upload URLs. The zero value is a disabled presigner.
type Presigner struct {
	bucket string
	client *s3.PresignClient
	now    func() time.Time
}

/*
NewPresigner builds the S3 client from static credentials.

Description: When options.Endpoint is set the client targets it with
path-style addressing, which is what MinIO and R2 expect.

Returns:
  - *Presigner: Disabled when options.Bucket is empty
  - error: AWS config loading failures
*/
func NewPresigner(context stdctx.Context, options Options) (*Presigner, error) {
	if options.Bucket == "" {
		return &Presigner{now: time.Now}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context,
		awsconfig.WithRegion(options.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			options.AccessKey,
			options.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Presigner{
		bucket: options.Bucket,
		client: s3.NewPresignClient(client),
		now:    time.Now,
	}, nil
}

// Enabled reports whether a bucket is configured.
func (p *Presigner) Enabled() bool {
	return p != nil && p.client != nil
}

/*
PresignUpload returns a PUT URL for a fresh key under prefix.

Description: Keys have the form <prefix>/<yyyy>/<mm>/<uuid>.

Returns:
  - *Upload: The signed request
  - error: ServiceUnavailable (503) when storage is disabled, signing failures
*/
func (p *Presigner) PresignUpload(context stdctx.Context, prefix, contentType string) (*Upload, error) {
	if !p.Enabled() {
		return nil, apperr.ServiceUnavailable("File uploads are not configured")
	}

	now := p.now().UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%s", prefix, now.Year(), int(now.Month()), uuid.New())

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	request, err := p.client.PresignPutObject(context, input, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("storage: presign put %s: %w", key, err)
	}

	return &Upload{
		Key:       key,
		URL:       request.URL,
		Method:    request.Method,
		ExpiresAt: now.Add(uploadExpiry),
	}, nil
}
