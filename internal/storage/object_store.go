package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"oneaccount/api/internal/config"
	"oneaccount/api/internal/ids"
)

// Blob references an object durably stored by the avatar store.
type Blob struct {
	ID       string
	URL      string
	Provider string
}

// AvatarStore keeps account avatars in an S3-compatible bucket. Uploads and
// destroys are independent operations; callers compensate on failure, the
// store itself is not transactional.
type AvatarStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewAvatarStore(cfg config.StorageConfig) (*AvatarStore, error) {
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

	return &AvatarStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Upload streams a new avatar into the configured folder and returns its
// blob reference. The object key doubles as the blob id used by Destroy.
func (s *AvatarStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType string) (Blob, error) {
	objectKey := path.Join(s.cfg.AvatarFolder, ids.New())

	options := minio.PutObjectOptions{
		ContentType: contentType,
	}
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, objectKey, reader, size, options); err != nil {
		return Blob{}, fmt.Errorf("put object: %w", err)
	}

	return Blob{
		ID:       objectKey,
		URL:      s.publicURL(objectKey),
		Provider: "minio",
	}, nil
}

// Destroy removes a previously uploaded avatar by blob id.
func (s *AvatarStore) Destroy(ctx context.Context, blobID string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, blobID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *AvatarStore) publicURL(objectKey string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, objectKey)
}
