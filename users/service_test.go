package users

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/config"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/media"
	"github.com/princinho/sessionauth/store"
	"github.com/princinho/sessionauth/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	folders []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folders = append(f.folders, folder)
	return "https://cdn.test/" + folder + "/" + fh.Filename, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		FullName: " Alice Liddell ",
		Email:    "Alice@Example.com",
		Username: "Alice",
		Password: "wonderland",
	}
}

func TestRegister_CreatesSanitizedUser(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	up := &fakeUploader{}
	svc := NewService(s, up, logging.Discard())

	in := validInput()
	in.Avatar = &multipart.FileHeader{Filename: "me.png"}
	in.CoverImage = &multipart.FileHeader{Filename: "bg.jpg"}

	u, err := svc.Register(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Liddell", u.FullName)
	assert.Equal(t, "https://cdn.test/avatars/me.png", u.Avatar)
	assert.Equal(t, "https://cdn.test/covers/bg.jpg", u.CoverImage)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, []string{"avatars", "covers"}, up.folders)

	stored, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, utils.CheckPassword(stored.PasswordHash, "wonderland"))
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), nil, logging.Discard())

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Username = "ALICE"
	in.Email = "other@example.com"
	_, err = svc.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil, logging.Discard())

	in := validInput()
	in.FullName = "   "
	_, err := svc.Register(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "got %v", err)
}

func TestRegister_UploadFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"unsupported type", media.ErrUnsupportedType, apperr.KindInvalidInput},
		{"backend down", errors.New("connection refused"), apperr.KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			svc := NewService(s, &fakeUploader{err: tc.err}, logging.Discard())

			in := validInput()
			in.Avatar = &multipart.FileHeader{Filename: "me.png"}
			_, err := svc.Register(context.Background(), in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))

			_, err = s.FindByUsernameOrEmail(context.Background(), "alice")
			assert.ErrorIs(t, err, store.ErrNotFound, "no user is created when an upload fails")
		})
	}
}

func TestRegister_NoUploaderDropsImages(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil, logging.Discard())

	in := validInput()
	in.Avatar = &multipart.FileHeader{Filename: "me.png"}
	u, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, u.Avatar)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewService(s, nil, logging.Discard())

	require.NoError(t, svc.Seed(ctx, config.SeedConfig{}))

	cfg := config.SeedConfig{Username: "admin", Email: "admin@example.com", Password: "s3cret-pass"}
	require.NoError(t, svc.Seed(ctx, cfg))
	require.NoError(t, svc.Seed(ctx, cfg), "seeding twice is harmless")

	u, err := s.FindByUsernameOrEmail(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)

	assert.Error(t, svc.Seed(ctx, config.SeedConfig{Username: "root"}))
}
