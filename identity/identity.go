package identity

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/hashing"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

const (
	userType    = "user"
	sessionType = "session"
)

// Identity owns the user and user-session collections.
type Identity struct {
	store      store.RecordStore
	sessionTTL time.Duration
	whitelist  []string
}

func New(recordStore store.RecordStore, sessionTTL time.Duration, whitelist []string) *Identity {
	return &Identity{
		store:      recordStore,
		sessionTTL: sessionTTL,
		whitelist:  whitelist,
	}
}

func (idn *Identity) whitelisted(username string) bool {
	if len(idn.whitelist) == 0 {
		return true
	}
	for _, name := range idn.whitelist {
		if name == username {
			return true
		}
	}
	return false
}

// RegistrationOpen reports whether anyone may register (no active whitelist).
func (idn *Identity) RegistrationOpen() bool {
	return len(idn.whitelist) == 0
}

func (idn *Identity) Register(ctx context.Context, username, password string) (models.User, error) {
	if !idn.whitelisted(username) {
		return models.User{}, errs.NotAllowed("Whitelist is active.")
	}

	if _, err := idn.GetUserByUsername(ctx, username); err == nil {
		return models.User{}, errs.Conflict("Username taken!")
	} else if !errors.Is(err, store.ErrItemNotFound) {
		return models.User{}, err
	}

	salt := hashing.RandomSalt()
	user := models.User{
		Username: username,
		Salt:     salt,
		Pass:     hashing.Hash(salt, password),
		Created:  time.Now().UnixMilli(),
	}

	id, err := idn.createUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	user.Id = id
	return user, nil
}

// Authenticate resolves a user by credentials. Unknown usernames and wrong
// passwords fail with the same message so callers cannot probe for accounts.
func (idn *Identity) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if !idn.whitelisted(username) {
		return models.User{}, errs.Auth("Whitelist is active.")
	}

	user, err := idn.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrItemNotFound) {
		return models.User{}, errs.Auth("Username / password mismatch.")
	} else if err != nil {
		return models.User{}, err
	}

	if hashing.Hash(user.Salt, password) != user.Pass {
		return models.User{}, errs.Auth("Username / password mismatch.")
	}
	return user, nil
}

// ChangePassword rotates the salt and hash and revokes every other live
// session for the user, keeping only keepSession. It returns the updated
// user and the revoked session ids.
func (idn *Identity) ChangePassword(ctx context.Context, user models.User, oldPassword, newPassword, keepSession string) (models.User, []string, error) {
	if hashing.Hash(user.Salt, oldPassword) != user.Pass {
		return models.User{}, nil, errs.NotAllowed("Password mismatch.")
	}

	salt := hashing.RandomSalt()
	user.Salt = salt
	user.Pass = hashing.Hash(salt, newPassword)
	if err := idn.PutUser(ctx, user.Id, user); err != nil {
		return models.User{}, nil, err
	}

	sessions, err := idn.SessionsForUser(ctx, user.Id)
	if err != nil {
		return models.User{}, nil, err
	}
	revoked := make([]string, 0, len(sessions))
	for _, sid := range sessions {
		if sid != keepSession {
			revoked = append(revoked, sid)
		}
	}
	if err := idn.DeleteSessions(ctx, revoked); err != nil {
		return models.User{}, nil, err
	}
	return user, revoked, nil
}

// users

func (idn *Identity) createUser(ctx context.Context, user models.User) (string, error) {
	for {
		id := uuid.Must(uuid.NewV4()).String()
		_, err := idn.store.Get(ctx, store.Key(userType, id))
		if errors.Is(err, store.ErrItemNotFound) {
			return id, store.PutJSON(ctx, idn.store, store.Key(userType, id), user)
		} else if err != nil {
			return "", err
		}
	}
}

func (idn *Identity) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := store.GetJSON[models.User](ctx, idn.store, store.Key(userType, id))
	if err != nil {
		return models.User{}, err
	}
	user.Id = id
	return user, nil
}

func (idn *Identity) PutUser(ctx context.Context, id string, user models.User) error {
	user.Id = ""
	return store.PutJSON(ctx, idn.store, store.Key(userType, id), user)
}

func (idn *Identity) DeleteUser(ctx context.Context, id string) error {
	return idn.store.Delete(ctx, store.Key(userType, id))
}

// GetUserByUsername is a range scan with a username predicate; usernames
// have no index of their own.
func (idn *Identity) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	low, high := store.RangeBounds(userType)
	var found *models.User
	err := idn.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		user, err := decodeUser(key, value)
		if err != nil {
			return false, err
		}
		if user.Username == username {
			found = &user
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return models.User{}, err
	}
	if found == nil {
		return models.User{}, store.ErrItemNotFound
	}
	return *found, nil
}

// sessions

// CreateSession draws a random id, retrying while it collides with a live
// session.
func (idn *Identity) CreateSession(ctx context.Context, userId string) (string, error) {
	for {
		id := uuid.Must(uuid.NewV4()).String()
		_, err := idn.store.Get(ctx, store.Key(sessionType, id))
		if errors.Is(err, store.ErrItemNotFound) {
			session := models.Session{User: userId, Created: time.Now().UnixMilli()}
			return id, store.PutJSON(ctx, idn.store, store.Key(sessionType, id), session)
		} else if err != nil {
			return "", err
		}
	}
}

func (idn *Identity) GetSession(ctx context.Context, id string) (models.Session, error) {
	session, err := store.GetJSON[models.Session](ctx, idn.store, store.Key(sessionType, id))
	if err != nil {
		return models.Session{}, err
	}
	session.Id = id
	return session, nil
}

// SessionExists is the collision probe used when minting app-session ids,
// which must stay disjoint from user-session ids.
func (idn *Identity) SessionExists(ctx context.Context, id string) (bool, error) {
	_, err := idn.store.Get(ctx, store.Key(sessionType, id))
	if errors.Is(err, store.ErrItemNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (idn *Identity) DeleteSession(ctx context.Context, id string) error {
	return idn.store.Delete(ctx, store.Key(sessionType, id))
}

func (idn *Identity) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.Key(sessionType, id)
	}
	return idn.store.BatchDelete(ctx, keys)
}

func (idn *Identity) SessionsForUser(ctx context.Context, userId string) ([]string, error) {
	low, high := store.RangeBounds(sessionType)
	var sessions []string
	err := idn.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		session, err := decodeSession(key, value)
		if err != nil {
			return false, err
		}
		if session.User == userId {
			sessions = append(sessions, session.Id)
		}
		return false, nil
	})
	return sessions, err
}

// SweepExpiredSessions deletes every session past its TTL and returns the
// deleted ids so callers can invalidate caches.
func (idn *Identity) SweepExpiredSessions(ctx context.Context) ([]string, error) {
	cutoff := time.Now().Add(-idn.sessionTTL).UnixMilli()
	low, high := store.RangeBounds(sessionType)
	var expired []string
	err := idn.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		session, err := decodeSession(key, value)
		if err != nil {
			return false, err
		}
		if session.Created < cutoff {
			expired = append(expired, session.Id)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if err := idn.DeleteSessions(ctx, expired); err != nil {
		return nil, err
	}
	return expired, nil
}

func decodeUser(key string, value []byte) (models.User, error) {
	user, err := store.DecodeJSON[models.User](value)
	if err != nil {
		return models.User{}, err
	}
	_, id, _ := store.SplitKey(key)
	user.Id = id
	return user, nil
}

func decodeSession(key string, value []byte) (models.Session, error) {
	session, err := store.DecodeJSON[models.Session](value)
	if err != nil {
		return models.Session{}, err
	}
	_, id, _ := store.SplitKey(key)
	session.Id = id
	return session, nil
}
