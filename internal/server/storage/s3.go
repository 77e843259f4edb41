package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	timeNow = time.Now
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Gateway talks to AWS S3 or any S3-compatible store (MinIO). Writes use
// conditional puts (If-None-Match: *) so an existing key is never replaced.
type S3Gateway struct {
	client    s3API
	presigner s3Presigner
	log       logging.Logger
	maxSize   int64
}

func NewS3Gateway(ctx context.Context, cfg *config.Config, l logging.Logger) (*S3Gateway, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return &S3Gateway{
		client:    client,
		presigner: newS3PresignClient(client),
		log:       l.With("module", "storage", "provider", common.ProviderS3),
		maxSize:   cfg.MaxObjectSize,
	}, nil
}

func (g *S3Gateway) Provider() string {
	return common.ProviderS3
}

func (g *S3Gateway) CreateSignedUploadURL(ctx context.Context, bucket, path string, opts SignOptions) (*SignedURL, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if !opts.Overwrite {
		in.IfNoneMatch = aws.String("*")
	}

	req, err := g.presigner.PresignPutObject(ctx, in, s3.WithPresignExpires(opts.Expires))
	if err != nil {
		return nil, fmt.Errorf("%w: presign put: %v", common.ErrUpstream, err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if http.CanonicalHeaderKey(name) == "Host" || len(values) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values[0]
	}
	if !opts.Overwrite {
		headers["If-None-Match"] = "*"
	}
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}

	return &SignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: timeNow().Add(opts.Expires),
	}, nil
}

func (g *S3Gateway) UploadBytes(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		IfNoneMatch:   aws.String("*"),
	})
	if err == nil {
		return nil
	}
	if s3ErrorCode(err, "PreconditionFailed", "ConditionalRequestConflict") {
		return fmt.Errorf("put %s/%s: %w", bucket, path, common.ErrAlreadyExists)
	}
	return fmt.Errorf("%w: put %s/%s: %v", common.ErrUpstream, bucket, path, err)
}

func (g *S3Gateway) DownloadBytes(ctx context.Context, bucket, path string) ([]byte, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || s3ErrorCode(err, "NoSuchKey", "NotFound", "NoSuchBucket") {
			return nil, fmt.Errorf("get %s/%s: %w", bucket, path, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: get %s/%s: %v", common.ErrUpstream, bucket, path, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && g.maxSize > 0 && *out.ContentLength > g.maxSize {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, path, ErrObjectTooLarge)
	}

	data, err := readLimited(out.Body, g.maxSize)
	if errors.Is(err, ErrObjectTooLarge) {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %v", common.ErrUpstream, bucket, path, err)
	}
	return data, nil
}

func (g *S3Gateway) DeleteObject(ctx context.Context, bucket, path string) {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		g.log.Warn(ctx, "delete object failed", "bucket", bucket, "path", path, "error", err)
		return
	}
	g.log.Info(ctx, "object deleted", "bucket", bucket, "path", path)
}

func s3ErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}
