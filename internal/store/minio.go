package store

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioCatalogSource reads catalog files stored as objects in a bucket.
type MinioCatalogSource struct {
	client *minio.Client
	bucket string
}

func NewMinioCatalogSource(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioCatalogSource, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: minio client")
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "store: minio bucket check")
	}
	if !exists {
		return nil, errors.Errorf("store: minio bucket %q does not exist", bucket)
	}
	return &MinioCatalogSource{client: client, bucket: bucket}, nil
}

// Fetch returns the object's bytes.
func (s *MinioCatalogSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "store: minio get %q", key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "store: minio read %q", key)
	}
	return data, nil
}
