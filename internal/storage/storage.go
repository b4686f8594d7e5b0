package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrUnsupportedContentType is returned for proof uploads that are not
// images.
var ErrUnsupportedContentType = errors.New("unsupported proof image content type")

// ErrForeignObjectKey is returned when a client requests a presigned URL for
// an object key outside their own proof prefix.
var ErrForeignObjectKey = errors.New("object key does not belong to this client")

// FileStorage defines the interface for object storage operations. Clients
// upload workout proof images directly to the bucket via presigned URLs; the
// API never proxies image bytes.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT
	// requests for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

var proofExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

// ProofImageKey builds the object key for a client's workout proof image.
// The random component keeps keys unguessable; the bucket is private and
// only reachable through presigned URLs.
func ProofImageKey(clientID primitive.ObjectID, contentType string) (string, error) {
	ext, ok := proofExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedContentType
	}
	return fmt.Sprintf("proofs/%s/%s.%s", clientID.Hex(), uuid.NewString(), ext), nil
}

// ValidateProofImageKey checks that key sits under the client's own proof
// prefix. Download and delete requests for other clients' objects are
// rejected before they ever reach the storage provider.
func ValidateProofImageKey(clientID primitive.ObjectID, key string) error {
	if !strings.HasPrefix(key, fmt.Sprintf("proofs/%s/", clientID.Hex())) {
		return ErrForeignObjectKey
	}
	return nil
}
