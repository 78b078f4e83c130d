package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"seribro_backend/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage - хранилище документов профилей и подтверждений регистрации.
// Ключи строит ObjectKey, наружу отдаются только URL.
type Storage interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete отсутствующего ключа не ошибка
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetURL - постоянная ссылка (логотипы, документы профиля)
	GetURL(ctx context.Context, key string) (string, error)
	// GetSignedURL - временная ссылка для приватных файлов (проверка админом)
	GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	Type     string
	BasePath string
	BaseURL  string

	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicRead bool
}

func ConfigFromApp(cfg *config.Config) Config {
	sc := cfg.Storage
	return Config{
		Type:       sc.Type,
		BasePath:   sc.BasePath,
		BaseURL:    sc.BaseURL,
		Bucket:     sc.Bucket,
		Region:     sc.Region,
		AccessKey:  sc.AccessKey,
		SecretKey:  sc.SecretKey,
		Endpoint:   sc.Endpoint,
		PublicRead: sc.PublicRead,
	}
}

// NewStorage выбирает бэкенд по storage.type
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2", "r2":
		return NewR2Storage(cfg)
	}
	return nil, fmt.Errorf("storage: unknown type %q", cfg.Type)
}
