package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"github.com/princekumarofficial/angelia/internal/config"
)

// PostsPrefix is the folder every post attachment lives under.
const PostsPrefix = "posts/"

type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
	publicBase string
}

// ObjectInfo is the part of a stored object the sweeper needs.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// NewService creates a new media service instance
func NewService(cfg *config.Config) (*Service, error) {
	// Initialize MinIO client
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicBase := strings.TrimSuffix(cfg.MinIO.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimSuffix(client.EndpointURL().String(), "/") + "/" + cfg.MinIO.BucketName
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Media,
		publicBase: publicBase,
	}

	// Ensure bucket exists
	if err := service.ensureBucket(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload stores one object and returns its public download URL.
func (s *Service) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns the public URL for accessing an object.
func (s *Service) URL(key string) string {
	return s.publicBase + "/" + key
}

// Delete removes an object from storage
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}

// List returns every object whose key starts with prefix.
func (s *Service) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}
		objects = append(objects, ObjectInfo{Key: object.Key, Size: object.Size, LastModified: object.LastModified})
	}

	return objects, nil
}

// Limits exposes the configured upload limits.
func (s *Service) Limits() config.Media {
	return *s.config
}

// ValidateContentType checks if the content type is allowed
func ValidateContentType(allowed []string, contentType string) bool {
	for _, a := range allowed {
		if contentType == a {
			return true
		}
	}
	return false
}

// Extension picks the file extension (without dot) for a content type.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/quicktime":
		return "mov"
	case "video/mpeg":
		return "mpeg"
	}

	extensions, err := mime.ExtensionsByType(contentType)
	if err == nil && len(extensions) > 0 {
		return strings.TrimPrefix(extensions[0], ".")
	}
	return "bin"
}

// PostObjectKey builds posts/{postID}/media_{index}_{randomID}.{ext}.
func PostObjectKey(postID string, index int, contentType string) string {
	return fmt.Sprintf("%s%s/media_%d_%s.%s", PostsPrefix, postID, index, xid.New().String(), Extension(contentType))
}

// PostIDFromKey extracts the post id from an attachment key.
func PostIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, PostsPrefix)
	if !ok {
		return "", false
	}
	postID, _, ok := strings.Cut(rest, "/")
	if !ok || postID == "" {
		return "", false
	}
	return postID, true
}
