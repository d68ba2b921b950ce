// Package storage provides the object-store implementation of the asset uploader.
package storage

import (
	"context"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"tubeid/config"
	"tubeid/internal/domain/lifecycle"
	"tubeid/internal/domain/service"
	"tubeid/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// bucket driver for local and dev environments
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// blobUploader stores uploaded assets in a gocloud.dev bucket and serves
// their public URLs from the configured base.
type blobUploader struct {
	bucket        *blob.Bucket
	publicBaseURL string
	logger        *slog.Logger
}

// New opens the configured bucket and returns it as a service.AssetUploader.
// The bucket is closed on shutdown through the fx lifecycle.
func New(params Params) (service.AssetUploader, error) {
	if params.Config.Storage == nil || params.Config.Storage.BucketURL == "" {
		return nil, errors.New("storage bucket URL must be provided")
	}

	openCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	bucket, err := blob.OpenBucket(openCtx, params.Config.Storage.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage bucket")
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	return &blobUploader{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(params.Config.Storage.PublicBaseURL, "/"),
		logger:        params.Logger,
	}, nil
}

// Upload copies a locally staged file into the bucket under the category
// prefix and returns the public URL of the stored object. The object key is
// random, so concurrent uploads of identically named files never collide.
func (u *blobUploader) Upload(ctx context.Context, localPath, category string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to open staged upload")
	}
	defer src.Close()

	ext := filepath.Ext(localPath)
	key := category + "/" + uuid.NewString() + ext

	writer, err := u.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: mime.TypeByExtension(ext),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create bucket writer")
	}

	if _, err := writer.ReadFrom(src); err != nil {
		// Abort the write so no partial object is left behind.
		_ = writer.Close()

		return "", errors.Wrap(err, "failed to write object")
	}

	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize object")
	}

	u.logger.DebugContext(ctx, "asset uploaded", slog.String("key", key))

	return u.publicBaseURL + "/" + key, nil
}
