// token выпускает и проверяет подписанные JWT с ограниченной областью действия
// (scope): access, refresh и email-verify.
//
// Ошибки Verify (ErrMalformedToken, ErrExpired, ErrScopeMismatch) не оборачивают
// причину из jwt-библиотеки: наружу уходит только вид ошибки.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope — область действия токена.
type Scope string

const (
	ScopeAccess      Scope = "access"
	ScopeRefresh     Scope = "refresh"
	ScopeEmailVerify Scope = "email-verify"
)

var (
	// ErrMalformedToken — неверная структура, подпись или алгоритм.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("token expired")
	// ErrScopeMismatch — токен выпущен для другой области действия.
	ErrScopeMismatch = errors.New("token scope mismatch")
)

// Claims — полезная нагрузка токена.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет токены общим секретом.
// Безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec для HMAC-алгоритма (HS256/HS384/HS512).
func New(secret []byte, algorithm string, opts ...Option) (*Codec, error) {
	const op = "token.codec.New"

	if len(secret) == 0 {
		return nil, fmt.Errorf("%s: empty secret", op)
	}

	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported signing algorithm %q", op, algorithm)
	}

	c := &Codec{
		secret: secret,
		method: method,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issue выпускает токен для subject с областью scope и сроком жизни ttl.
func (c *Codec) Issue(subject string, scope Scope, ttl time.Duration) (string, error) {
	const op = "token.codec.Issue"

	if subject == "" || ttl <= 0 {
		return "", fmt.Errorf("%s: subject and positive ttl are required", op)
	}

	now := c.now().UTC()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(ttl))),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись, срок и область действия токена.
// Токен действителен до момента exp включительно.
func (c *Codec) Verify(raw string, expected Scope) (*Claims, error) {
	var claims Claims

	// Срок проверяем сами: jwt считает истёкшим уже now == exp.
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrMalformedToken
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}

	if c.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	if claims.Scope != expected {
		return nil, ErrScopeMismatch
	}

	return &claims, nil
}

// ceilSecond округляет вверх до целой секунды: exp в JWT хранится в секундах,
// и усечение вниз укоротило бы срок жизни.
func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); r.Before(t) {
		return r.Add(time.Second)
	}
	return t
}
