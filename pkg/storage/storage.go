package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidKey is returned for keys that can not be mapped onto a backend.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage defines the contract for key-value blob backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data with the given key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys matching the given prefix, sorted alphabetically descending (newest first).
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data for the given key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the storage backend.
	Close() error
}

// ValidateKey rejects keys that would escape a flat namespace. Dot keys are
// reserved for temp files and never listed.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.Wrap(ErrInvalidKey, "key must not be empty")
	case strings.ContainsAny(key, `/\`):
		return errors.Wrapf(ErrInvalidKey, "key %q must not contain path separators", key)
	case strings.HasPrefix(key, "."):
		return errors.Wrapf(ErrInvalidKey, "key %q must not start with a dot", key)
	}
	return nil
}
