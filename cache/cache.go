package cache

import "context"

// SessionCache is a read-through cache in front of the session collections.
// The validation middleware hits it on every request; entries are
// invalidated whenever a session is deleted and expire on their own shortly
// after, so the store stays the source of truth.
type SessionCache interface {
	// GetSession returns (nil, nil) on a miss.
	GetSession(ctx context.Context, kind string, id string) ([]byte, error)
	SetSession(ctx context.Context, kind string, id string, data []byte) error
	InvalidateSessions(ctx context.Context, kind string, ids []string) error
}

const (
	KindUser = "user"
	KindApp  = "app"
)
