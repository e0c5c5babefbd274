package token

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// fakeClock — управляемое время для проверки срока действия.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newCodec(t *testing.T) (*Codec, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := New([]byte("unit-secret"), "HS256", WithClock(clk.Now))
	require.NoError(t, err)
	return c, clk
}

func TestNew_RejectsNonHMAC(t *testing.T) {
	t.Parallel()

	_, err := New([]byte("s"), "RS256")
	require.Error(t, err)

	_, err = New([]byte("s"), "none")
	require.Error(t, err)

	_, err = New(nil, "HS256")
	require.Error(t, err)

	c, err := New([]byte("s"), "hs384")
	require.NoError(t, err)
	require.Equal(t, "HS384", c.method.Alg())
}

func TestIssueVerify_RoundTrip_AllScopes(t *testing.T) {
	t.Parallel()

	c, clk := newCodec(t)

	for _, scope := range []Scope{ScopeAccess, ScopeRefresh, ScopeEmailVerify} {
		raw, err := c.Issue("a@x.com", scope, 15*time.Minute)
		require.NoError(t, err)

		clk.Advance(time.Minute)

		claims, err := c.Verify(raw, scope)
		require.NoError(t, err, scope)
		require.Equal(t, "a@x.com", claims.Subject)
		require.Equal(t, scope, claims.Scope)
		require.NotEmpty(t, claims.ID)
	}
}

func TestVerify_ScopeMismatch(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	scopes := []Scope{ScopeAccess, ScopeRefresh, ScopeEmailVerify}

	for _, issued := range scopes {
		raw, err := c.Issue("a@x.com", issued, time.Hour)
		require.NoError(t, err)

		for _, other := range scopes {
			if other == issued {
				continue
			}
			_, err := c.Verify(raw, other)
			require.ErrorIs(t, err, ErrScopeMismatch, "issued=%s expected=%s", issued, other)
		}
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	c, clk := newCodec(t)

	raw, err := c.Issue("a@x.com", ScopeAccess, time.Minute)
	require.NoError(t, err)

	clk.Advance(59 * time.Second)
	_, err = c.Verify(raw, ScopeAccess)
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	_, err = c.Verify(raw, ScopeAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerify_ExpiredWinsOverScope(t *testing.T) {
	t.Parallel()

	c, clk := newCodec(t)

	raw, err := c.Issue("a@x.com", ScopeRefresh, time.Minute)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = c.Verify(raw, ScopeAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	raw, err := c.Issue("a@x.com", ScopeAccess, time.Hour)
	require.NoError(t, err)

	// Подменённая подпись.
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	other, err := New([]byte("other-secret"), "HS256")
	require.NoError(t, err)
	foreign, err := other.Issue("a@x.com", ScopeAccess, time.Hour)
	require.NoError(t, err)

	for _, in := range []string{"", "garbage", "a.b.c", tampered, foreign} {
		_, err := c.Verify(in, ScopeAccess)
		require.ErrorIs(t, err, ErrMalformedToken, in)
	}
}

func TestVerify_RejectsOtherAlgorithm(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	hs512, err := New([]byte("unit-secret"), "HS512")
	require.NoError(t, err)
	raw, err := hs512.Issue("a@x.com", ScopeAccess, time.Hour)
	require.NoError(t, err)

	_, err = c.Verify(raw, ScopeAccess)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	claims := Claims{
		Scope:            ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com"},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-secret"))
	require.NoError(t, err)

	_, err = c.Verify(raw, ScopeAccess)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestIssue_DistinctTokensAtSameInstant(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	a, err := c.Issue("a@x.com", ScopeRefresh, time.Hour)
	require.NoError(t, err)
	b, err := c.Issue("a@x.com", ScopeRefresh, time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestIssue_InvalidInput(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	_, err := c.Issue("", ScopeAccess, time.Hour)
	require.Error(t, err)

	_, err = c.Issue("a@x.com", ScopeAccess, 0)
	require.Error(t, err)
}

func TestVerify_SubSecondIssueKeepsFullTTL(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 700*int(time.Millisecond), time.UTC)}
	c, err := New([]byte("unit-secret"), "HS256", WithClock(clk.Now))
	require.NoError(t, err)

	raw, err := c.Issue("a@x.com", ScopeAccess, 15*time.Minute)
	require.NoError(t, err)

	// За 400ms до истечения ttl токен ещё действителен.
	clk.Advance(15*time.Minute - 400*time.Millisecond)
	_, err = c.Verify(raw, ScopeAccess)
	require.NoError(t, err)

	// exp округлён вверх до 12:15:01; сразу после него токен истёк.
	clk.Advance(800 * time.Millisecond)
	_, err = c.Verify(raw, ScopeAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerify_ValidAtExactExpiry(t *testing.T) {
	t.Parallel()

	c, clk := newCodec(t)

	raw, err := c.Issue("a@x.com", ScopeRefresh, time.Minute)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	claims, err := c.Verify(raw, ScopeRefresh)
	require.NoError(t, err)
	require.True(t, clk.Now().Equal(claims.ExpiresAt.Time))

	clk.Advance(time.Nanosecond)
	_, err = c.Verify(raw, ScopeRefresh)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCeilSecond(t *testing.T) {
	t.Parallel()

	whole := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, whole, ceilSecond(whole))
	require.Equal(t, whole.Add(time.Second), ceilSecond(whole.Add(time.Nanosecond)))
	require.Equal(t, whole.Add(time.Second), ceilSecond(whole.Add(999*time.Millisecond)))
}
