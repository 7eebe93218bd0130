// Package s3 implements an objectstore.Store on Amazon S3 (or an S3
// compatible endpoint) using aws-sdk-go.
//
// Reads stream the object body; writes go through s3manager.Uploader so the
// body can be an unbounded io.Reader (multipart uploads for large files).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"salesetl/internal/objectstore"
)

// getter is the subset of *s3.S3 used by Store.
type getter interface {
	GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// uploader is the subset of *s3manager.Uploader used by Store.
type uploader interface {
	UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Store is an S3-backed objectstore.Store.
type Store struct {
	client   getter
	uploader uploader
}

var _ objectstore.Store = (*Store)(nil)

// newSession is a test hook.
var newSession = session.NewSession

func init() {
	objectstore.Register("s3", func(_ context.Context, cfg objectstore.Config) (objectstore.Store, error) {
		return New(cfg)
	})
}

// New builds a Store from cfg. Credentials come from the standard AWS chain
// (environment, shared config, instance role).
func New(cfg objectstore.Config) (*Store, error) {
	awsCfg := &aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.PathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := newSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: new session: %w", err)
	}
	client := s3.New(sess)
	return &Store{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

// Get opens s3://bucket/key. NoSuchKey and NoSuchBucket map to
// objectstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket:
				return nil, fmt.Errorf("s3: get s3://%s/%s: %w", bucket, key, objectstore.ErrNotFound)
			}
		}
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Put uploads body to s3://bucket/key.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	in := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.UploadWithContext(ctx, in); err != nil {
		return fmt.Errorf("s3: put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
