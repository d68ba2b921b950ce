package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubeid/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newTestUploader(t *testing.T) (*blobUploader, string) {
	t.Helper()

	bucketDir := t.TempDir()

	cfg := &config.Config{}
	cfg.Storage = &config.StorageConfig{
		BucketURL:     "file://" + bucketDir,
		PublicBaseURL: "https://cdn.example.com/",
	}

	lc := fxtest.NewLifecycle(t)
	uploader, err := New(Params{
		Lifecycle: lc,
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(lc.RequireStop)

	return uploader.(*blobUploader), bucketDir
}

func stageTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestBlobUploader_Upload(t *testing.T) {
	uploader, bucketDir := newTestUploader(t)

	localPath := stageTestFile(t, "avatar.png", "fake image bytes")

	url, err := uploader.Upload(context.Background(), localPath, "avatars")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"), "unexpected URL: %s", url)
	assert.True(t, strings.HasSuffix(url, ".png"), "extension must be preserved: %s", url)

	// The object must exist in the bucket with the uploaded content.
	key := strings.TrimPrefix(url, "https://cdn.example.com/")
	stored, err := os.ReadFile(filepath.Join(bucketDir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(stored))
}

func TestBlobUploader_Upload_RandomizedKeys(t *testing.T) {
	uploader, _ := newTestUploader(t)

	localPath := stageTestFile(t, "avatar.png", "fake image bytes")

	first, err := uploader.Upload(context.Background(), localPath, "avatars")
	require.NoError(t, err)
	second, err := uploader.Upload(context.Background(), localPath, "avatars")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same file uploaded twice must not collide")
}

func TestBlobUploader_Upload_MissingStagedFile(t *testing.T) {
	uploader, _ := newTestUploader(t)

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.png"), "avatars")

	require.Error(t, err)
}

func TestNew_RequiresBucketURL(t *testing.T) {
	cfg := &config.Config{}

	_, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	require.Error(t, err)
}
