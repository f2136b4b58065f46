package delegation

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

// CreateAppSession mints a delegated session for an app acting on behalf of
// a user. Scopes are snapshotted at issuance and never widen afterwards.
// The id is collision-checked against both the app-session collection and
// the user-session collection.
func (d *Delegation) CreateAppSession(ctx context.Context, appId, userId string, fileScopes, dbScopes []string) (string, error) {
	for {
		id := uuid.Must(uuid.NewV4()).String()
		_, err := d.store.Get(ctx, store.Key(appSessionType, id))
		if err == nil {
			continue
		} else if !errors.Is(err, store.ErrItemNotFound) {
			return "", err
		}
		taken, err := d.sessionCollision(ctx, id)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		session := models.AppSession{
			App:        appId,
			User:       userId,
			Created:    time.Now().UnixMilli(),
			FileScopes: fileScopes,
			DbScopes:   dbScopes,
		}
		return id, store.PutJSON(ctx, d.store, store.Key(appSessionType, id), session)
	}
}

func (d *Delegation) GetAppSession(ctx context.Context, id string) (models.AppSession, error) {
	session, err := store.GetJSON[models.AppSession](ctx, d.store, store.Key(appSessionType, id))
	if err != nil {
		return models.AppSession{}, err
	}
	session.Id = id
	return session, nil
}

func (d *Delegation) DeleteAppSession(ctx context.Context, id string) error {
	return d.store.Delete(ctx, store.Key(appSessionType, id))
}

func (d *Delegation) DeleteAppSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.Key(appSessionType, id)
	}
	return d.store.BatchDelete(ctx, keys)
}

func (d *Delegation) AppSessionsForUser(ctx context.Context, userId string) ([]models.AppSession, error) {
	return d.appSessionsWhere(ctx, func(s models.AppSession) bool { return s.User == userId })
}

func (d *Delegation) AppSessionsForApp(ctx context.Context, appId string) ([]models.AppSession, error) {
	return d.appSessionsWhere(ctx, func(s models.AppSession) bool { return s.App == appId })
}

func (d *Delegation) appSessionsWhere(ctx context.Context, match func(models.AppSession) bool) ([]models.AppSession, error) {
	low, high := store.RangeBounds(appSessionType)
	var sessions []models.AppSession
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		session, err := decodeAppSession(key, value)
		if err != nil {
			return false, err
		}
		if match(session) {
			sessions = append(sessions, session)
		}
		return false, nil
	})
	return sessions, err
}

// SweepExpiredAppSessions deletes every app session past its TTL and
// returns the deleted ids.
func (d *Delegation) SweepExpiredAppSessions(ctx context.Context) ([]string, error) {
	cutoff := time.Now().Add(-d.sessionTTL).UnixMilli()
	expired, err := d.appSessionsWhere(ctx, func(s models.AppSession) bool { return s.Created < cutoff })
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(expired))
	for i, s := range expired {
		ids[i] = s.Id
	}
	if err := d.DeleteAppSessions(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func decodeAppSession(key string, value []byte) (models.AppSession, error) {
	session, err := store.DecodeJSON[models.AppSession](value)
	if err != nil {
		return models.AppSession{}, err
	}
	_, id, _ := store.SplitKey(key)
	session.Id = id
	return session, nil
}
