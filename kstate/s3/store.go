// Package s3 provides a kstate.Store backed by an S3 compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/birdayz/kbuild/kstate"
)

const latestObject = "LATEST"

// Config addresses a bucket and prefix.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool
}

type s3Store struct {
	name   string
	client *minio.Client
	bucket string
	prefix string
}

// New connects to the endpoint and creates the bucket if it does not exist.
func New(ctx context.Context, name string, cfg Config) (kstate.Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, err
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(ctx, cfg.Bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &s3Store{
		name:   name,
		client: client,
		bucket: cfg.Bucket,
		prefix: path.Join(cfg.Prefix, name),
	}, nil
}

func (s *s3Store) Name() string {
	return s.name
}

func (s *s3Store) objectName(key string) string {
	return path.Join(s.prefix, "records", key)
}

func (s *s3Store) put(ctx context.Context, object string, v []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(v), int64(len(v)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// Put writes the record, then the latest pointer. A crash in between leaves
// the pointer on the previous record.
func (s *s3Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kstate.ErrEmptyKey
	}
	if err := s.put(ctx, s.objectName(key), value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := s.put(ctx, path.Join(s.prefix, latestObject), []byte(key)); err != nil {
		return fmt.Errorf("update latest pointer: %w", err)
	}
	return nil
}

func (s *s3Store) get(ctx context.Context, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, kstate.ErrKeyNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, s.objectName(key))
}

func (s *s3Store) Latest(ctx context.Context) (string, []byte, error) {
	key, err := s.get(ctx, path.Join(s.prefix, latestObject))
	if err != nil {
		return "", nil, err
	}
	v, err := s.Get(ctx, string(key))
	return string(key), v, err
}

func (s *s3Store) Keys(ctx context.Context) ([]string, error) {
	prefix := s.objectName("") + "/"
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *s3Store) Close() error {
	return nil
}
