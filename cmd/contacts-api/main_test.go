package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		env       string
		debugOn   bool
		jsonTyped bool
	}{
		{envLocal, true, false},
		{envDev, true, true},
		{envProd, false, true},
		{"unknown", true, false},
	}

	for _, tc := range cases {
		l := setupLogger(tc.env)
		require.Equal(t, tc.debugOn, l.Enabled(ctx, slog.LevelDebug), tc.env)
		require.True(t, l.Enabled(ctx, slog.LevelInfo), tc.env)

		_, isJSON := l.Handler().(*slog.JSONHandler)
		require.Equal(t, tc.jsonTyped, isJSON, tc.env)
	}
}

func TestConnect_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := connectPostgres(ctx, log, "postgres://u:p@127.0.0.1:1/db?connect_timeout=1")
	require.Error(t, err)

	_, err = connectRedis(ctx, log, "redis://127.0.0.1:1/0")
	require.Error(t, err)
}
