package bgserve

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/advdv/bgate"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
)

// S3PutObjectAPI is the part of the S3 client that the [S3Store] uses.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores uploads as objects in an S3 bucket. Objects are keyed by the cleaned filename below the prefix
// and carry the content digest as metadata.
type S3Store struct {
	Client S3PutObjectAPI
	Bucket string
	Prefix string
}

// StoreUpload implements [bgate.UploadStore].
func (s S3Store) StoreUpload(ctx context.Context, name string, upload *bgate.FileUpload) error {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(path.Join(s.Prefix, name)),
		Body:          bytes.NewReader(upload.Bytes()),
		ContentLength: aws.Int64(upload.Size),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"digest": upload.Digest()},
	}); err != nil {
		return errors.Wrapf(err, "put object in bucket '%s'", s.Bucket)
	}

	return nil
}

var _ bgate.UploadStore = S3Store{}

// provideUploadStore stores uploads in BG_UPLOAD_BUCKET, or in a directory named after the service below the
// temp dir.
func provideUploadStore(env Environment, cfg aws.Config) (bgate.UploadStore, error) {
	if bucket := env.uploadBucket(); bucket != "" {
		return S3Store{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: env.serviceName()}, nil
	}

	dir := filepath.Join(os.TempDir(), "bgserve-uploads", env.serviceName())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}

	return bgate.DirStore{Dir: dir}, nil
}
