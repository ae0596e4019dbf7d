// Package storage downloads images from remote sources and hands them over
// as upload candidates. Nothing is ever written back.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	apperrors "go-image-detector/internal/errors"
	"go-image-detector/internal/upload"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize bounds a download when no limit is configured.
const DefaultMaxSize int64 = 10 << 20

const genericContentType = "application/octet-stream"

// ImageFetcher downloads one remote object.
type ImageFetcher interface {
	FetchImage(ctx context.Context, sourceURL string) (*upload.File, error)
}

// declaredType returns the media type without parameters. Missing or generic
// types are sniffed from the content.
func declaredType(header string, data []byte) string {
	mediaType := strings.TrimSpace(header)
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "" || mediaType == genericContentType {
		detected := mimetype.Detect(data).String()
		if parsed, _, err := mime.ParseMediaType(detected); err == nil {
			return parsed
		}
		return detected
	}
	return mediaType
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image", err)
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return apperrors.NewTooLargeError(limit, nil)
}

// fileName picks a display name from an object path.
func fileName(p string) string {
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}

// splitObjectURL parses "<scheme>://<bucket>/<key>".
func splitObjectURL(raw, scheme string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid source URL", err)
	}
	if u.Scheme != scheme {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("expected %s:// URL", scheme), nil)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("%s URL must name a container and an object", scheme), nil)
	}
	return u.Host, key, nil
}
