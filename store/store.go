package store

import (
	"context"
	"errors"
	"strings"
)

// RecordStore is a minimal ordered key-value abstraction. Entity collections
// are emulated by key prefixes ("<type>!!<id>"); there are no secondary
// indexes, so lookups by non-id fields are range scans with a client-side
// predicate.
type RecordStore interface {
	Put(ctx context.Context, key string, value []byte) error
	// Get returns ErrItemNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// ScanRange visits every record with low < key < high in lexicographic
	// key order. Returning stop=true from fn ends the scan early.
	ScanRange(ctx context.Context, low string, high string, fn func(key string, value []byte) (stop bool, err error)) error
	// BatchDelete removes the given keys as a single all-or-nothing write.
	BatchDelete(ctx context.Context, keys []string) error
}

var (
	ErrItemNotFound = errors.New("item does not exist")
)

const keySep = "!!"

// Key builds the record key for an entity of the given type.
func Key(recordType, id string) string {
	return recordType + keySep + id
}

// RangeBounds returns the exclusive scan bounds covering every record of a
// type. '"' is the character immediately above '!', so the high bound sorts
// just past the last possible id while staying inside the type's namespace.
func RangeBounds(recordType string) (low, high string) {
	return recordType + `!!`, recordType + `!"`
}

// SplitKey breaks a record key back into type and id.
func SplitKey(key string) (recordType, id string, ok bool) {
	i := strings.Index(key, keySep)
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+len(keySep):], true
}
