package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/ids"
)

// ObjectStore holds partner-uploaded assets: portfolio images in one
// bucket, verification documents in another.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.BucketPortfolio, s.cfg.BucketDocuments} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// PutPortfolioAsset stores a portfolio image and returns its public URL.
func (s *ObjectStore) PutPortfolioAsset(ctx context.Context, partnerID string, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.put(ctx, s.cfg.BucketPortfolio, partnerID, filename, r, size, contentType)
}

// PutDocument stores a verification document and returns its URL.
func (s *ObjectStore) PutDocument(ctx context.Context, partnerID string, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.put(ctx, s.cfg.BucketDocuments, partnerID, filename, r, size, contentType)
}

func (s *ObjectStore) put(ctx context.Context, bucket, partnerID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectKey := s.buildObjectKey(partnerID, filename)

	_, err := s.client.PutObject(ctx, bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.buildPublicURL(bucket, objectKey), nil
}

func (s *ObjectStore) buildObjectKey(partnerID, filename string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	ext := path.Ext(filename)
	return path.Join(partnerID, datePrefix, ids.New()+ext)
}

func (s *ObjectStore) buildPublicURL(bucket, objectKey string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectKey)
}
