// Package storage saves uploaded profile pictures to the local upload directory or to S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for object names that are empty or contain path elements.
var ErrInvalidName = errors.New("storage: invalid object name")

// Store saves an uploaded file under name and returns the path or URL clients fetch it from.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ProfilePicName returns user_<id>_<random hex><ext>, keeping the extension of the
// uploaded file name or defaulting to .jpg.
func ProfilePicName(userID int64, uploaded string) string {
	ext := strings.ToLower(filepath.Ext(uploaded))
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ".jpg"
	}
	id := uuid.New()
	return fmt.Sprintf("user_%d_%x%s", userID, id[:], ext)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
