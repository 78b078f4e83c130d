package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Storage - AWS S3 и совместимые с ним хранилища (Cloudflare R2, MinIO)
type S3Storage struct {
	api      *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	urlBase  string
	acl      *string
}

func NewS3Storage(cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: s3 bucket is not set")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg := aws.NewConfig().WithRegion(region)
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	urlBase := cfg.BaseURL
	if urlBase == "" {
		urlBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
	return openS3(awsCfg, cfg, urlBase)
}

// NewR2Storage - R2 говорит на S3 API, регион всегда "auto"
func NewR2Storage(cfg Config) (*S3Storage, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage: r2 endpoint is not set")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage: r2 bucket is not set")
	}

	awsCfg := aws.NewConfig().
		WithRegion("auto").
		WithEndpoint(cfg.Endpoint).
		WithS3ForcePathStyle(true).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))

	urlBase := cfg.BaseURL
	if urlBase == "" {
		urlBase = fmt.Sprintf("https://%s.r2.dev", cfg.Bucket)
	}
	return openS3(awsCfg, cfg, urlBase)
}

func openS3(awsCfg *aws.Config, cfg Config, urlBase string) (*S3Storage, error) {
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 session: %w", err)
	}
	st := &S3Storage{
		api:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		urlBase:  strings.TrimRight(urlBase, "/"),
	}
	if cfg.PublicRead {
		st.acl = aws.String(s3.ObjectCannedACLPublicRead)
	}
	return st, nil
}

func (s *S3Storage) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         s.acl,
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Err(err, "get", key)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if err = s3Err(err, "head", key); errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3Storage) GetURL(_ context.Context, key string) (string, error) {
	return s.urlBase + "/" + strings.TrimLeft(key, "/"), nil
}

func (s *S3Storage) GetSignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	link, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return link, nil
}

// s3Err: NoSuchKey и 404 от HeadObject превращаются в ErrObjectNotFound
func s3Err(err error, op, key string) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
		return ErrObjectNotFound
	}
	return fmt.Errorf("storage: %s %s: %w", op, key, err)
}
