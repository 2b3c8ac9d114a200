package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API used to fetch attachments.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures the S3 client. Credentials fall back to the default AWS chain.
type S3Config struct {
	Region         string `env:"ATTACHMENTS_S3_REGION" yaml:"region" toml:"region"`
	AccessKeyID    string `env:"ATTACHMENTS_S3_ACCESS_KEY_ID" yaml:"access_key_id" toml:"access_key_id"`
	SecretKey      string `env:"ATTACHMENTS_S3_SECRET_KEY" yaml:"secret_key" toml:"secret_key"`
	Endpoint       string `env:"ATTACHMENTS_S3_ENDPOINT" yaml:"endpoint" toml:"endpoint"` // S3-compatible services
	ForcePathStyle bool   `env:"ATTACHMENTS_S3_FORCE_PATH_STYLE" yaml:"force_path_style" toml:"force_path_style"`
}

// S3Source loads s3://bucket/key descriptors.
type S3Source struct {
	client  S3Client
	maxSize int64
}

// S3Option configures an S3Source.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	httpClient    *http.Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*s3.Options)
	maxSize       int64
}

// WithS3Client sets a pre-configured client. Useful for tests.
func WithS3Client(c S3Client) S3Option {
	return func(o *s3Options) { o.client = c }
}

func WithS3HTTPClient(c *http.Client) S3Option {
	return func(o *s3Options) { o.httpClient = c }
}

func WithS3ConfigOption(opt func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) { o.configOptions = append(o.configOptions, opt) }
}

func WithS3ClientOption(opt func(*s3.Options)) S3Option {
	return func(o *s3Options) { o.clientOptions = append(o.clientOptions, opt) }
}

func WithS3MaxSize(n int64) S3Option {
	return func(o *s3Options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// NewS3Source creates an S3 source, building an AWS client from cfg unless one is supplied.
func NewS3Source(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Source, error) {
	options := &s3Options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(options)
	}

	if options.client != nil {
		return &S3Source{client: options.client, maxSize: options.maxSize}, nil
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidConfig)
	}

	awsOptions := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	if options.httpClient != nil {
		awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
	}
	awsOptions = append(awsOptions, options.configOptions...)

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
		for _, opt := range options.clientOptions {
			opt(o)
		}
	})

	return &S3Source{client: client, maxSize: options.maxSize}, nil
}

// ParseS3Descriptor splits s3://bucket/key into bucket and key.
func ParseS3Descriptor(descriptor string) (bucket, key string, err error) {
	u, err := url.Parse(descriptor)
	if err != nil || !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: %q is not an s3 URL", ErrInvalidDescriptor, descriptor)
	}
	bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidDescriptor, descriptor)
	}
	return bucket, key, nil
}

func (s *S3Source) Load(ctx context.Context, descriptor string) (*File, error) {
	bucket, key, err := ParseS3Descriptor(descriptor)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err, descriptor)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, descriptor)
	}

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, errors.Join(ErrFailedToRead, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, descriptor)
	}

	name := path.Base(key)
	ct := aws.ToString(out.ContentType)
	if ct == "" || ct == "binary/octet-stream" {
		ct = contentType(name, data)
	}
	return &File{Name: name, ContentType: ct, Data: data}, nil
}

// classifyS3Error maps S3 errors to package errors.
func classifyS3Error(err error, descriptor string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrNotFound, descriptor)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: bucket of %s", ErrNotFound, descriptor)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %s", ErrNotFound, descriptor)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", ErrAccessDenied, descriptor)
		default:
			return fmt.Errorf("%w: %s (code: %s): %w", ErrFailedToRead, descriptor, apiErr.ErrorCode(), err)
		}
	}
	return errors.Join(ErrFailedToRead, err)
}
