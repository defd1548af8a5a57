package gcs

import (
	"context"
)

// StorageService provides an interface for statement object storage.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket and returns its gs:// URI.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) (string, error)

	// Fetch downloads object bytes from the given storage URI.
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}
