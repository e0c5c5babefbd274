package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/log"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

// UpdateAvatar загружает новый аватар пользователя в объектное хранилище
// и сохраняет публичную ссылку.
//
// Валидация:
//   - size в (0, avatar.max_size_bytes], иначе ErrInvalidArgument/ErrAvatarTooLarge;
//   - тип из avatar.allowed_content_types. Пустой contentType
//     определяется по расширению filename.
//
// Снимок в кэше не обновляется (если выключен cache.evict_on_mutation):
// /api/users/me может отдавать старую ссылку до истечения TTL.
func (s *Service) UpdateAvatar(ctx context.Context, user *models.User, filename, contentType string, size int64, r io.Reader) (*models.User, error) {
	const op = "service.users.UpdateAvatar"

	lg := log.From(ctx).With(slog.String("op", op), slog.String("user_id", user.ID.String()))

	if size <= 0 {
		return nil, fmt.Errorf("%s: %w", op, invalid("file", "is empty"))
	}
	if size > s.cfg.Avatar.MaxSizeBytes {
		lg.Warn("avatar_too_large", slog.Int64("size", size))
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarTooLarge)
	}

	ct := mediaType(contentType, filename)
	if !slices.Contains(s.cfg.Avatar.AllowedContentTypes, ct) {
		return nil, fmt.Errorf("%s: %w", op, invalid("file", "unsupported content type"))
	}

	url, err := s.avatars.PutAvatar(ctx, user.ID, ct, size, r)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, invalid("file", "rejected by storage"))
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.storage.UpdateAvatar(ctx, user.ID, url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.evict(ctx, user.Email)

	lg.Info("avatar_updated")

	return updated, nil
}

// mediaType возвращает MIME-тип без параметров.
func mediaType(contentType, filename string) string {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return mt
}
