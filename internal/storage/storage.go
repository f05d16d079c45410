// Package storage abstracts the object store holding plan cover images and
// exercise demonstration media. Devices never proxy bytes through the API;
// they upload and download via presigned URLs.
package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT
	// requests for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// CoverImageKey builds the object key for a plan's cover image.
func CoverImageKey(userID, planID string) string {
	return "covers/" + userID + "/" + planID
}

// ExerciseMediaKey builds the object key for a catalog exercise's media.
func ExerciseMediaKey(exerciseID string) string {
	return "exercise-media/" + exerciseID
}
