// Package storage keeps the book cover files, on MinIO or on the local disk.
package storage

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

const coversPrefix = "covers"

var ErrInvalidRef = errors.New("invalid file reference")

/* Builds covers/<owner>/<random id><ext>, the extension guessed from the content type. */
func newRef(ownerID int64, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return path.Join(coversPrefix, fmt.Sprint(ownerID), uuid.NewString()+ext)
}

func validRef(ref string) error {
	clean := path.Clean(ref)
	if clean != ref || !strings.HasPrefix(clean, coversPrefix+"/") || strings.Contains(clean, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
