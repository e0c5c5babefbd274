package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/log"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/redact"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
	"github.com/pribylovaa/go-contacts-api/internal/token"
)

const confirmPath = "/api/auth/confirmed_email/"

// SignupInput — данные регистрации.
// Username необязателен: пустое значение заменяется локальной частью e-mail.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup регистрирует неподтверждённого пользователя и в фоне отправляет
// письмо со ссылкой подтверждения, построенной от baseURL.
func (s *Service) Signup(ctx context.Context, in SignupInput, baseURL string) (*models.User, error) {
	const op = "service.auth.Signup"

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	username, err := normalizeUsername(in.Username, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg := log.From(ctx).With(slog.String("op", op), slog.String("email", redact.Email(email)))

	_, err = s.storage.UserByEmail(ctx, email)
	if err == nil {
		lg.Warn("signup_email_taken")
		return nil, fmt.Errorf("%s: %w", op, ErrAccountExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Avatar:       gravatarURL(email),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendConfirmation(ctx, user, baseURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_signed_up", slog.String("user_id", user.ID.String()))

	return user, nil
}

// ConfirmEmail подтверждает e-mail по токену из письма.
// alreadyConfirmed=true, если e-mail был подтверждён раньше (повтор безопасен).
func (s *Service) ConfirmEmail(ctx context.Context, raw string) (bool, error) {
	const op = "service.auth.ConfirmEmail"

	claims, err := s.tokens.Verify(raw, token.ScopeEmailVerify)
	if err != nil {
		log.From(ctx).Warn("confirmation_token_rejected", slog.String("op", op), slog.String("err", err.Error()))
		return false, fmt.Errorf("%s: %w", op, ErrInvalidConfirmationToken)
	}

	user, err := s.storage.UserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrVerification)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.storage.ConfirmEmail(ctx, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrVerification)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.evict(ctx, user.Email)

	log.From(ctx).Info("email_confirmed", slog.String("user_id", user.ID.String()))

	return false, nil
}

// Login выполняет вход по e-mail и паролю.
// Ошибки различимы: ErrInvalidEmail, ErrEmailNotConfirmed, ErrInvalidPassword.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	norm, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Confirmed {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailNotConfirmed)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// RefreshToken ротирует пару токенов. Пользователь читается из БД, не из кэша.
// Предъявление валидного, но не текущего refresh-токена сбрасывает
// сохранённый токен: после этого нужен повторный вход.
func (s *Service) RefreshToken(ctx context.Context, raw string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshToken"

	claims, err := s.tokens.Verify(raw, token.ScopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	user, err := s.storage.UserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sameDigest(refreshDigest(raw), user.RefreshToken) {
		log.From(ctx).Warn("refresh_token_reuse",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("token", redact.Token()),
		)

		if err := s.storage.SetRefreshToken(ctx, user.ID, ""); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.evict(ctx, user.Email)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// CurrentUser разрешает пользователя по access-токену.
// Снимок берётся из кэша; при промахе читается БД и кладётся в кэш на cache.user_ttl.
// Снимок может отставать от БД на время TTL.
func (s *Service) CurrentUser(ctx context.Context, raw string) (*models.User, error) {
	const op = "service.auth.CurrentUser"

	claims, err := s.tokens.Verify(raw, token.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	user, ok, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		return user, nil
	}

	user, err = s.storage.UserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.Put(ctx, claims.Subject, user, s.cfg.Cache.UserTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// RequestEmail повторно отправляет письмо подтверждения.
// Для неизвестного e-mail ответ тот же, что и при успехе, письмо не отправляется.
func (s *Service) RequestEmail(ctx context.Context, email, baseURL string) (bool, error) {
	const op = "service.auth.RequestEmail"

	norm, err := normalizeEmail(email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Info("request_email_unknown", slog.String("email", redact.Email(norm)))
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.sendConfirmation(ctx, user, baseURL); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return false, nil
}

// Logout сбрасывает сохранённый refresh-токен пользователя.
// Выданные access-токены остаются валидными до истечения срока.
func (s *Service) Logout(ctx context.Context, user *models.User) error {
	const op = "service.auth.Logout"

	if err := s.storage.SetRefreshToken(ctx, user.ID, ""); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	s.evict(ctx, user.Email)

	return nil
}

// issueTokenPair выпускает access+refresh и сохраняет дайджест refresh-токена.
// Предыдущий refresh-токен пользователя перестаёт быть текущим.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := s.now().UTC()

	access, err := s.tokens.Issue(user.Email, token.ScopeAccess, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.tokens.Issue(user.Email, token.ScopeRefresh, s.cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetRefreshToken(ctx, user.ID, refreshDigest(refresh)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.evict(ctx, user.Email)

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.cfg.Auth.AccessTokenTTL),
		RefreshExpiresAt: now.Add(s.cfg.Auth.RefreshTokenTTL),
	}, nil
}

// sendConfirmation выпускает email-verify токен и отправляет письмо в фоне.
// Ошибка доставки только логируется: регистрация уже состоялась.
func (s *Service) sendConfirmation(ctx context.Context, user *models.User, baseURL string) error {
	const op = "service.auth.sendConfirmation"

	raw, err := s.tokens.Issue(user.Email, token.ScopeEmailVerify, s.cfg.Auth.EmailTokenTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	link := strings.TrimRight(baseURL, "/") + confirmPath + url.PathEscape(raw)

	bg := context.WithoutCancel(ctx)
	s.dispatch.Add(1)

	go func() {
		defer s.dispatch.Done()

		sendCtx := bg
		if s.cfg.SMTP.Timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(bg, s.cfg.SMTP.Timeout)
			defer cancel()
		}

		if err := s.mailer.SendConfirmation(sendCtx, user.Email, user.Username, link); err != nil {
			log.From(bg).Error("confirmation_email_failed",
				slog.String("op", op),
				slog.String("email", redact.Email(user.Email)),
				slog.String("err", err.Error()),
			)
		}
	}()

	return nil
}

// evict удаляет снимок пользователя из кэша, если включён cache.evict_on_mutation.
// По умолчанию снимок живёт до истечения TTL.
func (s *Service) evict(ctx context.Context, email string) {
	if !s.cfg.Cache.EvictOnMutation {
		return
	}

	if err := s.users.Evict(ctx, email); err != nil {
		log.From(ctx).Warn("user_cache_evict_failed",
			slog.String("email", redact.Email(email)),
			slog.String("err", err.Error()),
		)
	}
}

func refreshDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func sameDigest(presented, stored string) bool {
	if stored == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
