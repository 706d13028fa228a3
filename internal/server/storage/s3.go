package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Folder    string
	// PublicBaseURL prefixes object keys in photo URLs. Defaults to
	// Endpoint/Bucket.
	PublicBaseURL string
	MaxBytes      int64
}

// S3Storage keeps photos in an S3-compatible bucket (MinIO in development).
// Objects live under folder/<owner>/ and are keyed by the hash of the cropped
// bytes, so one owner uploading the same picture twice gets the same URL while
// two owners never share an object.
type S3Storage struct {
	client  s3API
	bucket  string
	folder  string
	baseURL string
	maxSize int64
}

func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	base := opts.PublicBaseURL
	if base == "" {
		base = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}

	return &S3Storage{
		client:  client,
		bucket:  opts.Bucket,
		folder:  opts.Folder,
		baseURL: strings.TrimRight(base, "/"),
		maxSize: opts.MaxBytes,
	}, nil
}

func (s *S3Storage) objectKey(owner string, data []byte) string {
	sum := sha256.Sum256(data)
	return joinKey(s.folder, owner, hex.EncodeToString(sum[:])+".jpg")
}

func (s *S3Storage) Upload(ctx context.Context, owner, name string, data []byte) (*UploadResult, error) {
	cropped, err := FillCrop(data, PhotoSize)
	if err != nil {
		return nil, &Error{Message: "Invalid image file"}
	}

	key := s.objectKey(owner, cropped)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(cropped),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", name, err)
	}

	return &UploadResult{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", publicID, err)
	}
	return nil
}

func (s *S3Storage) Fetch(ctx context.Context, photo *models.Photo) ([]byte, error) {
	key := photo.PublicID
	if key == "" {
		key = strings.TrimPrefix(photo.URL, s.baseURL+"/")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	if s.maxSize <= 0 {
		return io.ReadAll(out.Body)
	}
	b, err := io.ReadAll(io.LimitReader(out.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	if int64(len(b)) > s.maxSize {
		return nil, fmt.Errorf("s3 get %s: object exceeds %d bytes", key, s.maxSize)
	}
	return b, nil
}
