package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Cache.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Cache stores tiles as objects named {prefix}{style}/{z}/{x}/{y}.png.
type S3Cache struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Cache(ctx context.Context, cfg S3Config) (*S3Cache, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3CacheWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewS3CacheWithClient(client S3API, bucket, prefix string) *S3Cache {
	return &S3Cache{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

var _ TileCache = (*S3Cache)(nil)

func (c *S3Cache) objectKey(k TileCacheKey) string {
	return c.prefix + k.Path()
}

func (c *S3Cache) Get(ctx context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(k)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("s3 get %s: %w", c.objectKey(k), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("s3 read %s: %w", c.objectKey(k), err)
	}

	return data, true, nil
}

func (c *S3Cache) Set(ctx context.Context, k TileCacheKey, v TileCacheValue) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.objectKey(k)),
		Body:          bytes.NewReader(v),
		ContentLength: aws.Int64(int64(len(v))),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", c.objectKey(k), err)
	}

	return nil
}
