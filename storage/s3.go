package storage

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type S3Storage struct {
	Bucket   string
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

func NewS3Storage(sess *session.Session, bucket string) *S3Storage {
	client := s3.New(sess)
	return NewS3StorageWithClient(client, s3manager.NewUploaderWithClient(client), bucket)
}

func NewS3StorageWithClient(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket string) *S3Storage {
	return &S3Storage{
		Bucket:   bucket,
		client:   client,
		uploader: uploader,
	}
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", err
	}
	return out.Location, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// KeyFromURL handles both virtual-hosted (bucket.s3.region.amazonaws.com/key)
// and path-style (endpoint/bucket/key) locations
func (s *S3Storage) KeyFromURL(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(u.Host, s.Bucket+".") {
		if !strings.HasPrefix(key, s.Bucket+"/") {
			return "", ErrForeignURL
		}
		key = strings.TrimPrefix(key, s.Bucket+"/")
	}
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}
