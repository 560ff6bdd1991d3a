package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"school-directory/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 stores images as public objects in an S3 (or S3 compatible) bucket.
type S3 struct {
	svc      *s3.S3
	bucket   string
	region   string
	endpoint string
	folder   string
}

func NewS3(cfg config.ImageConfig) (*S3, error) {
	s := &S3{
		bucket:   cfg.S3Bucket,
		region:   cfg.AWSRegion,
		endpoint: strings.TrimRight(cfg.S3Endpoint, "/"),
		folder:   cfg.Folder,
	}
	if cfg.AWSAccessKey == "" || cfg.AWSSecretKey == "" || cfg.AWSRegion == "" || cfg.S3Bucket == "" {
		return s, nil
	}

	awsCfg := &aws.Config{
		Region:      aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
	}
	if s.endpoint != "" {
		awsCfg.Endpoint = aws.String(s.endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	s.svc = s3.New(sess)
	return s, nil
}

func (s *S3) Upload(ctx context.Context, u Upload) (Image, error) {
	if s.svc == nil {
		return Image{}, ErrMissingCredentials
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, u.Body); err != nil {
		return Image{}, fmt.Errorf("failed to read file buffer: %w", err)
	}

	size := int64(buf.Len())
	if u.Size > 0 && u.Size != size {
		return Image{}, fmt.Errorf("image body has %d bytes, expected %d", size, u.Size)
	}

	key := path.Join(s.folder, u.Name+u.Extension)
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(u.ContentType),
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return Image{PublicID: key, URL: s.objectURL(key)}, nil
}

func (s *S3) Delete(ctx context.Context, publicID string) error {
	if s.svc == nil {
		return ErrMissingCredentials
	}
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *S3) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
