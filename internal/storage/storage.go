package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// ObjectExists reports whether objectKey has been uploaded.
	ObjectExists(ctx context.Context, objectKey string) (bool, error)

	DeleteObject(ctx context.Context, objectKey string) error
}

// ContentPrefix is the key prefix under which a gym's library lives.
func ContentPrefix(gymID primitive.ObjectID) string {
	return "content/" + gymID.Hex() + "/"
}

// NewContentKey returns a fresh object key for an upload, keeping the file
// extension of fileName: content/<gymId>/<uuid>.<ext>.
func NewContentKey(gymID primitive.ObjectID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	return ContentPrefix(gymID) + uuid.NewString() + ext
}

// OwnsKey reports whether objectKey is inside the gym's prefix.
func OwnsKey(gymID primitive.ObjectID, objectKey string) bool {
	clean := path.Clean(objectKey)
	return clean == objectKey && strings.HasPrefix(objectKey, ContentPrefix(gymID)) && len(objectKey) > len(ContentPrefix(gymID))
}
