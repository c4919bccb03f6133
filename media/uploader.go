// Package media stores user-supplied images (avatar, cover) in object
// storage and returns their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Uploader interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
}

var ErrUnsupportedType = errors.New("file type not allowed (allowed: jpg, jpeg, png, webp, gif)")

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// objectName builds "<folder>/<unix>-<uuid><ext>" and rejects non-image
// extensions.
func objectName(folder string, fh *multipart.FileHeader, now time.Time) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("%s: %w", fh.Filename, ErrUnsupportedType)
	}
	return fmt.Sprintf("%s/%d-%s%s", strings.Trim(folder, "/"), now.UTC().Unix(), uuid.New().String(), ext), nil
}

func contentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}
