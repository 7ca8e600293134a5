package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPath     = errors.New("invalid path")
	ErrNoFile          = errors.New("No file received")
	ErrMalformedUpload = errors.New("malformed multipart body")
)

// Backend stores media files. Every path is relative to the media root,
// slash separated and already normalized.
type Backend interface {
	// List returns the direct children of folder in backend order. A folder
	// that does not exist yields no entries and no error.
	List(ctx context.Context, folder string) ([]MediaEntry, error)
	// Upload creates or replaces the file at filePath.
	Upload(ctx context.Context, filePath string, reader io.Reader) error
	Mkdir(ctx context.Context, folder string) error
	Delete(ctx context.Context, filePath string) error
}

// RemoteError is a request the remote storage API answered with a non-success
// status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote storage returned %d", e.Status)
}

type StorageType string

const (
	StorageTypeLocal  StorageType = "local"
	StorageTypeGitHub StorageType = "github"
	StorageTypeS3     StorageType = "s3"
)

type BackendConfig struct {
	Type      StorageType  `mapstructure:"type"`
	MediaRoot string       `mapstructure:"media_root"`
	LocalPath string       `mapstructure:"local_path"`
	GitHub    GitHubConfig `mapstructure:"github"`
	S3        S3Config     `mapstructure:"s3"`
}

type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	Owner   string        `mapstructure:"owner"`
	Repo    string        `mapstructure:"repo"`
	Branch  string        `mapstructure:"branch"`
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func (c *BackendConfig) Validate() error {
	switch c.Type {
	case StorageTypeLocal:
		return nil
	case StorageTypeGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("github storage requires owner and repo")
		}
		if c.GitHub.Token == "" {
			return fmt.Errorf("github storage requires an access token")
		}
		return nil
	case StorageTypeS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 storage requires endpoint and bucket")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage type: %q", c.Type)
	}
}

func NewBackend(config *BackendConfig) (Backend, error) {
	switch config.Type {
	case StorageTypeGitHub:
		return NewGitHubStorage(config)
	case StorageTypeS3:
		return NewS3Storage(config)
	default:
		return NewLocalStorage(config)
	}
}
