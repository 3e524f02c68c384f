package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// GeneratedPrefix is the key prefix of AI-generated images.
	GeneratedPrefix = "generated/"

	// UploadPrefix is the key prefix of visitor uploads in the private
	// bucket. The next path segment is the uploader's session ID.
	UploadPrefix = "uploads/"
)

// IsPublicKey reports whether key lives in the public bucket.
func IsPublicKey(key string) bool {
	return strings.HasPrefix(key, GeneratedPrefix)
}

// IsUploadKey reports whether key names a visitor upload.
func IsUploadKey(key string) bool {
	return strings.HasPrefix(key, UploadPrefix)
}

// UploadedBy reports whether key sits under sessionID's upload prefix.
func UploadedBy(key, sessionID string) bool {
	if sessionID == "" || strings.Contains(sessionID, "/") {
		return false
	}
	return strings.HasPrefix(key, UploadPrefix+sessionID+"/")
}

// UploadKey builds uploads/<session>/YYYY/MM/<uuid>.<ext> for a file
// uploaded at t.
func UploadKey(sessionID string, t time.Time, ext string) string {
	return fmt.Sprintf("%s%s/%04d/%02d/%s.%s", UploadPrefix, sessionID, t.Year(), int(t.Month()), uuid.NewString(), strings.TrimPrefix(ext, "."))
}

// GeneratedKey builds generated/YYYY/MM/<uuid>.<ext> for an image created at t.
func GeneratedKey(t time.Time, ext string) string {
	return fmt.Sprintf("%s%04d/%02d/%s.%s", GeneratedPrefix, t.Year(), int(t.Month()), uuid.NewString(), strings.TrimPrefix(ext, "."))
}

// ThumbnailKey derives the thumbnail key of an original: a/b/c.png -> a/b/c_thumb.jpg.
func ThumbnailKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + "_thumb.jpg"
}

// ExtForMIME returns the file extension for an image MIME type.
func ExtForMIME(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
