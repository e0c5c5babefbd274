// minio реализует storage.AvatarStorage на базе MinIO/S3:
// конструктор нормализует endpoint и проверяет наличие бакета,
// PutAvatar загружает файл и собирает публичную ссылку.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/go-contacts-api/internal/config"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

// AvatarsStorage — адаптер MinIO для аватаров пользователей.
type AvatarsStorage struct {
	client  *mclient.Client
	bucket  string
	baseURL string
}

// New создаёт клиент MinIO. Схема в endpoint определяет Secure;
// отсутствие бакета — ошибка (fail-fast на старте).
func New(ctx context.Context, cfg config.S3Config) (*AvatarsStorage, error) {
	const op = "storage.minio.New"

	endpoint := cfg.Endpoint
	scheme := "http"

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		scheme = u.Scheme
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	// Без CDN ссылки строятся path-style от самого S3.
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = scheme + "://" + endpoint + "/" + cfg.Bucket
	}

	return &AvatarsStorage{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

var _ storage.AvatarStorage = (*AvatarsStorage)(nil)
