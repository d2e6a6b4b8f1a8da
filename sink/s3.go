package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poiesic/newsdigest/pipeline"
)

// S3API is the part of the S3 client the sink uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each payload to s3://<bucket>/<prefix>/<run_id>.json.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Sink creates a sink over an existing client.
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from the default AWS configuration chain.
// An empty region defers to the environment.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Name identifies the sink.
func (s *S3Sink) Name() string { return "s3" }

// Deliver uploads the payload.
func (s *S3Sink) Deliver(ctx context.Context, payload *pipeline.Payload) error {
	data, err := Encode(payload)
	if err != nil {
		return err
	}
	key := ObjectKey(s.prefix, payload.Meta.RunID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
