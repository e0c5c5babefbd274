package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-contacts-api/internal/models"
	"github.com/pribylovaa/go-contacts-api/internal/storage"
)

func TestUpdateAvatar_Validation(t *testing.T) {
	t.Parallel()

	env, _ := newContactsEnv(t)
	u := owner()
	ctx := context.Background()

	_, err := env.svc.UpdateAvatar(ctx, u, "a.png", "image/png", 0, strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.UpdateAvatar(ctx, u, "a.png", "image/png", 1025, strings.NewReader(""))
	require.ErrorIs(t, err, ErrAvatarTooLarge)

	_, err = env.svc.UpdateAvatar(ctx, u, "a.gif", "image/gif", 10, strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.UpdateAvatar(ctx, u, "noext", "", 10, strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateAvatar_OK(t *testing.T) {
	t.Parallel()

	env, st := newContactsEnv(t)
	u := owner()

	env.avatars.EXPECT().
		PutAvatar(gomock.Any(), u.ID, "image/jpeg", int64(10), gomock.Any()).
		Return("http://minio.test/avatars/x.jpg", nil)
	st.EXPECT().UpdateAvatar(gomock.Any(), u.ID, "http://minio.test/avatars/x.jpg").
		Return(&models.User{ID: u.ID, Avatar: "http://minio.test/avatars/x.jpg"}, nil)

	got, err := env.svc.UpdateAvatar(context.Background(), u, "x.jpg", "image/jpeg; charset=binary", 10, strings.NewReader("0123456789"))
	require.NoError(t, err)
	require.Equal(t, "http://minio.test/avatars/x.jpg", got.Avatar)
}

func TestUpdateAvatar_StorageErrors(t *testing.T) {
	t.Parallel()

	env, st := newContactsEnv(t)
	u := owner()
	ctx := context.Background()

	env.avatars.EXPECT().PutAvatar(gomock.Any(), u.ID, "image/png", int64(5), gomock.Any()).
		Return("", storage.ErrInvalidArgument)
	_, err := env.svc.UpdateAvatar(ctx, u, "a.png", "image/png", 5, strings.NewReader("12345"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	s3Err := errors.New("s3 unavailable")
	env.avatars.EXPECT().PutAvatar(gomock.Any(), u.ID, "image/png", int64(5), gomock.Any()).
		Return("", s3Err)
	_, err = env.svc.UpdateAvatar(ctx, u, "a.png", "image/png", 5, strings.NewReader("12345"))
	require.ErrorIs(t, err, s3Err)

	env.avatars.EXPECT().PutAvatar(gomock.Any(), u.ID, "image/png", int64(5), gomock.Any()).
		Return("http://minio.test/a.png", nil)
	st.EXPECT().UpdateAvatar(gomock.Any(), u.ID, "http://minio.test/a.png").Return(nil, storage.ErrNotFound)
	_, err = env.svc.UpdateAvatar(ctx, u, "a.png", "image/png", 5, strings.NewReader("12345"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGravatarURL_Stable(t *testing.T) {
	t.Parallel()

	require.Equal(t, gravatarURL("A@X.com "), gravatarURL("a@x.com"))
	require.True(t, strings.HasPrefix(gravatarURL("a@x.com"), "https://www.gravatar.com/avatar/"))
}
