package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты Redis-хранилища (testcontainers, образ redis:7-alpine).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/cache -v -race -count=1

func startRedis(t *testing.T) (*Redis, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "6379/tcp")

	r, err := NewRedis(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	cleanup := func() {
		_ = r.Close()
		_ = c.Terminate(context.Background())
	}
	return r, cleanup
}

func TestNewRedis_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(context.Background(), "://nope")
	require.Error(t, err)
}

func TestIntegration_Redis_GetSetDelete(t *testing.T) {
	r, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	_, err := r.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, r.Delete(ctx, "k"))
	require.NoError(t, r.Delete(ctx, "k"))

	_, err = r.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestIntegration_Redis_IncrementKeepsWindow(t *testing.T) {
	r, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	n, ttl, err := r.Increment(ctx, "rl:test:1", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Greater(t, ttl, time.Duration(0))

	time.Sleep(500 * time.Millisecond)

	n, ttl2, err := r.Increment(ctx, "rl:test:1", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Less(t, ttl2, ttl, "второй инкремент не должен продлевать окно")

	time.Sleep(2 * time.Second)

	n, _, err = r.Increment(ctx, "rl:test:1", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
