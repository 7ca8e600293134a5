package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Storage keeps media as objects under the media root prefix of a bucket.
// Folders exist only as key prefixes, so mkdir writes a placeholder object.
type S3Storage struct {
	client *minio.Client
	bucket string
	root   string
}

func NewS3Storage(config *BackendConfig) (*S3Storage, error) {
	client, err := minio.New(config.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.S3.AccessKey, config.S3.SecretKey, ""),
		Secure: config.S3.UseSSL,
		Region: config.S3.Region,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, config.S3.Bucket)
	if err != nil {
		return nil, err
	}

	if !exists {
		if err := client.MakeBucket(ctx, config.S3.Bucket, minio.MakeBucketOptions{Region: config.S3.Region}); err != nil {
			return nil, err
		}
	}

	return &S3Storage{
		client: client,
		bucket: config.S3.Bucket,
		root:   strings.Trim(config.MediaRoot, "/"),
	}, nil
}

func (s *S3Storage) List(ctx context.Context, folder string) ([]MediaEntry, error) {
	prefix := folderPrefix(joinRoot(s.root, folder))

	var entries []MediaEntry
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, object.Err
		}

		name := strings.TrimPrefix(object.Key, prefix)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			entries = append(entries, MediaEntry{Filename: strings.TrimSuffix(name, "/")})
			continue
		}
		entries = append(entries, MediaEntry{
			IsFile:   true,
			Size:     uint64(object.Size),
			Filename: name,
		})
	}
	return entries, nil
}

func (s *S3Storage) Upload(ctx context.Context, filePath string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, joinRoot(s.root, filePath), reader, -1, minio.PutObjectOptions{
		ContentType: detectContentType(path.Base(filePath)),
	})
	return err
}

func (s *S3Storage) Mkdir(ctx context.Context, folder string) error {
	key := joinRoot(s.root, folder+"/"+placeholderName)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	return err
}

func (s *S3Storage) Delete(ctx context.Context, filePath string) error {
	key := joinRoot(s.root, filePath)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return err
	}

	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func folderPrefix(p string) string {
	if p == "" {
		return ""
	}
	return p + "/"
}

func detectContentType(filename string) string {
	dotIndex := strings.LastIndex(filename, ".")
	if dotIndex == -1 || dotIndex == len(filename)-1 {
		return "application/octet-stream"
	}
	ext := strings.ToLower(filename[dotIndex+1:])
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	case "avif":
		return "image/avif"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
