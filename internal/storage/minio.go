package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/config"
)

// Object key layout inside the credential bucket: every submitted photo
// lives under uploads/, every encoded credential image under results/.
const (
	sourcePhotoPrefix     = "uploads/"
	credentialImagePrefix = "results/"
	credentialMIMEType    = "image/jp2"
)

// SourcePhotoKey builds the object key a freshly uploaded photo is
// stored under before its job exists in the database.
func SourcePhotoKey(id uuid.UUID, filename string) string {
	return sourcePhotoPrefix + id.String() + "_" + filename
}

// CredentialImageKey builds the object key a completed job's JPEG 2000
// bytes are stored under.
func CredentialImageKey(jobID uuid.UUID) string {
	return credentialImagePrefix + jobID.String() + ".jp2"
}

// MinIOStore holds the two object classes the credential pipeline
// touches: source photos awaiting processing and finished credential
// images.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the credential bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// PutSourcePhoto stores an uploaded photo under key, preserving the
// caller-reported content type so the original can later be re-served
// or re-processed as submitted.
func (s *MinIOStore) PutSourcePhoto(ctx context.Context, key string, data []byte, contentType string) error {
	return s.put(ctx, key, data, contentType)
}

// GetSourcePhoto retrieves a job's source photo bytes.
func (s *MinIOStore) GetSourcePhoto(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, key)
}

// PutCredentialImage stores a completed job's JPEG 2000 bytes and
// returns the key they were stored under.
func (s *MinIOStore) PutCredentialImage(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	key := CredentialImageKey(jobID)
	if err := s.put(ctx, key, data, credentialMIMEType); err != nil {
		return "", err
	}
	return key, nil
}

// GetCredentialImage retrieves a completed credential image by its
// stored key.
func (s *MinIOStore) GetCredentialImage(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, key)
}

// DeleteJobArtifacts removes a job's source photo and, when present,
// its credential image. Missing objects are not an error, so a
// half-cleaned job can be retried.
func (s *MinIOStore) DeleteJobArtifacts(ctx context.Context, sourceKey, resultKey string) error {
	for _, key := range []string{sourceKey, resultKey} {
		if key == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete object %s: %w", key, err)
		}
	}
	return nil
}

// Ping checks object storage connectivity.
func (s *MinIOStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func (s *MinIOStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStore) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}
