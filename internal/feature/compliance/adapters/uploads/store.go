// Package uploads stores uploaded compliance documents on the local filesystem.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrDisallowedExtension is returned for file types that cannot be processed.
var ErrDisallowedExtension = errors.New("file type not allowed")

// ErrEmptyFilename is returned when a name has nothing left after sanitizing.
var ErrEmptyFilename = errors.New("empty filename")

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
	".md":   {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// AllowedExtensions lists the accepted extensions, for error messages.
func AllowedExtensions() string {
	return "pdf, docx, txt, md, png, jpg, jpeg"
}

// Allowed reports whether name has an accepted extension.
func Allowed(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// SecureFilename reduces name to a safe base name: directories are dropped,
// whitespace becomes "_" and anything outside [A-Za-z0-9_.-] is removed.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// Store writes uploads into one directory.
type Store struct {
	dir string
}

// NewStore creates dir if needed and returns a Store on it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload folder.
func (s *Store) Dir() string {
	return s.dir
}

// Save copies r to a new file named after name and returns its path. The
// stored name carries a random prefix so concurrent uploads never collide.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	if !Allowed(name) {
		return "", fmt.Errorf("%w: %s", ErrDisallowedExtension, filepath.Ext(name))
	}
	safe := SecureFilename(name)
	if safe == "" || !Allowed(safe) {
		return "", ErrEmptyFilename
	}

	path := filepath.Join(s.dir, uuid.NewString()+"_"+safe)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// Remove deletes previously saved files, ignoring ones already gone.
func (s *Store) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
