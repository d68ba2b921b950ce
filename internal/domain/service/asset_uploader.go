package service

import "context"

// AssetUploader defines the interface for durable storage of uploaded profile
// assets. Implementations copy a locally staged file into an object store and
// return the externally reachable URL of the stored object.
type AssetUploader interface {
	// Upload stores the file at localPath under the given category prefix
	// and returns its public URL.
	Upload(ctx context.Context, localPath, category string) (string, error)
}
