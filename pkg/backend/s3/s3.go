// Package s3 implements backend.Backend against any S3-compatible object
// store (AWS, MinIO, Wasabi, Backblaze B2) via aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mladen4o/ClovaLink/pkg/backend"
)

// Config configures the S3 client. Endpoint, if set, points at an
// S3-compatible provider instead of AWS (MinIO, Wasabi, B2).
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type Backend struct {
	client *s3.Client
	bucket string
}

func New(ctx context.Context, cfg Config) (*Backend, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("backend/s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Backend{client: client, bucket: cfg.Bucket}, nil
}

func (b *Backend) Put(ctx context.Context, key string, r io.Reader, sizeHint int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("backend/s3: put %s: %w", key, err)
	}
	return nil
}

func (b *Backend) PutFromPath(ctx context.Context, key string, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("backend/s3: open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("backend/s3: stat %s: %w", localPath, err)
	}
	return b.Put(ctx, key, f, info.Size())
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("backend/s3: get %s: %w", key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.Body); err != nil {
		return nil, fmt.Errorf("backend/s3: read %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, uint64, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("backend/s3: get stream %s: %w", key, err)
	}
	var size uint64
	if out.ContentLength != nil {
		size = uint64(*out.ContentLength)
	}
	return out.Body, size, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("backend/s3: delete %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *Backend) List(ctx context.Context, prefix string) ([]backend.ObjectInfo, error) {
	p := prefix
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}

	var out []backend.ObjectInfo
	var token *string
	for {
		resp, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(p),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("backend/s3: list %s: %w", prefix, err)
		}
		for _, cp := range resp.CommonPrefixes {
			if cp.Prefix != nil {
				out = append(out, backend.ObjectInfo{Key: *cp.Prefix, IsDir: true})
			}
		}
		for _, obj := range resp.Contents {
			if obj.Key == nil || *obj.Key == p {
				continue
			}
			info := backend.ObjectInfo{Key: *obj.Key}
			if obj.Size != nil {
				info.SizeBytes = uint64(*obj.Size)
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}
	return out, nil
}

func (b *Backend) Rename(ctx context.Context, from, to string) error {
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		CopySource: aws.String(b.bucket + "/" + from),
		Key:        aws.String(to),
	})
	if err != nil {
		return fmt.Errorf("backend/s3: copy %s -> %s: %w", from, to, err)
	}
	return b.Delete(ctx, from)
}

func (b *Backend) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(b.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("backend/s3: presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (b *Backend) SupportsPresignedURLs() bool { return true }

func (b *Backend) Healthcheck(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("backend/s3: healthcheck: %w", err)
	}
	return time.Since(start), nil
}

var _ backend.Backend = (*Backend)(nil)
