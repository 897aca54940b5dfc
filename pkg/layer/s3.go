package layer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dd0wney/cluso-geonet/pkg/geometry"
)

// ObjectPutter is the part of the S3 client the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads the layer as one GeoJSON object on Close. The upload is
// conditional on the key not existing yet.
type S3 struct {
	collector
	client   ObjectPutter
	Bucket   string
	Key      string
	Compress bool
}

// NewS3 creates a sink using the default AWS credential chain. A custom
// endpoint switches the client to path-style addressing for S3-compatible
// stores.
func NewS3(ctx context.Context, bucket, key string, opts OpenOptions) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.S3Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, bucket, key, opts.Compress), nil
}

// NewS3WithClient creates a sink around an existing client.
func NewS3WithClient(client ObjectPutter, bucket, key string, compress bool) *S3 {
	return &S3{client: client, Bucket: bucket, Key: key, Compress: compress}
}

func (s *S3) Create(_ context.Context, name string, schema []geometry.Field) error {
	return s.create("Create", name, schema)
}

func (s *S3) Append(_ context.Context, e Edge) error {
	return s.append("Append", e)
}

func (s *S3) Close(ctx context.Context) error {
	if s.ds == nil {
		return nil
	}
	data, err := encode(s.ds, s.Compress)
	if err != nil {
		return err
	}
	contentType := "application/geo+json"
	if s.Compress {
		contentType = "application/x-snappy"
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return nil
}
