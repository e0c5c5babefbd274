package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"

	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

// PutAvatar загружает изображение под ключом "avatars/<userID>/<uuid>.<ext>"
// и возвращает его публичный URL.
func (s *AvatarsStorage) PutAvatar(ctx context.Context, userID uuid.UUID, contentType string, size int64, r io.Reader) (string, error) {
	const op = "storage.minio.PutAvatar"

	ext, ok := extByContentType(contentType)
	if !ok || size <= 0 {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	key := path.Join("avatars", userID.String(), uuid.NewString()+ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, mclient.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		resp := mclient.ToErrorResponse(err)
		if resp.Code == "EntityTooLarge" || resp.Code == "EntityTooSmall" {
			return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.publicURL(key), nil
}

func (s *AvatarsStorage) publicURL(key string) string {
	return s.baseURL + "/" + key
}

func extByContentType(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	case "image/gif":
		return ".gif", true
	default:
		return "", false
	}
}
