package delegation

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

const (
	appType        = "app"
	appSessionType = "appsession"
	handshakeType  = "apphandshake"
	masterKeyType  = "masterkey"
)

// CollisionFunc reports whether an id is already taken in a foreign
// collection. App-session ids must stay disjoint from user-session ids so
// the validation middleware can resolve either without ambiguity.
type CollisionFunc func(ctx context.Context, id string) (bool, error)

// Delegation owns the app, app-handshake, app-session and master-key
// collections.
type Delegation struct {
	store            store.RecordStore
	handshakeTTL     time.Duration
	sessionTTL       time.Duration
	sessionCollision CollisionFunc
}

func New(recordStore store.RecordStore, handshakeTTL, sessionTTL time.Duration, sessionCollision CollisionFunc) *Delegation {
	if sessionCollision == nil {
		sessionCollision = func(context.Context, string) (bool, error) { return false, nil }
	}
	return &Delegation{
		store:            recordStore,
		handshakeTTL:     handshakeTTL,
		sessionTTL:       sessionTTL,
		sessionCollision: sessionCollision,
	}
}

func (d *Delegation) newRecordId(ctx context.Context, recordType string) (string, error) {
	for {
		id := uuid.Must(uuid.NewV4()).String()
		_, err := d.store.Get(ctx, store.Key(recordType, id))
		if errors.Is(err, store.ErrItemNotFound) {
			return id, nil
		} else if err != nil {
			return "", err
		}
	}
}

// apps

func (d *Delegation) CreateApp(ctx context.Context, app models.App) (string, error) {
	id, err := d.newRecordId(ctx, appType)
	if err != nil {
		return "", err
	}
	app.Id = ""
	return id, store.PutJSON(ctx, d.store, store.Key(appType, id), app)
}

func (d *Delegation) GetApp(ctx context.Context, id string) (models.App, error) {
	app, err := store.GetJSON[models.App](ctx, d.store, store.Key(appType, id))
	if err != nil {
		return models.App{}, err
	}
	app.Id = id
	return app, nil
}

func (d *Delegation) PutApp(ctx context.Context, id string, app models.App) error {
	app.Id = ""
	return store.PutJSON(ctx, d.store, store.Key(appType, id), app)
}

func (d *Delegation) DeleteApp(ctx context.Context, id string) error {
	return d.store.Delete(ctx, store.Key(appType, id))
}

func (d *Delegation) DeleteApps(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.Key(appType, id)
	}
	return d.store.BatchDelete(ctx, keys)
}

// FindAppByCombo looks an app up by its (name, secretHash) pair. The pair
// has no index; this is a short-circuiting range scan.
func (d *Delegation) FindAppByCombo(ctx context.Context, name, secretHash string) (models.App, error) {
	low, high := store.RangeBounds(appType)
	var found *models.App
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		app, err := decodeApp(key, value)
		if err != nil {
			return false, err
		}
		if app.Name == name && app.Secret == secretHash {
			found = &app
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return models.App{}, err
	}
	if found == nil {
		return models.App{}, store.ErrItemNotFound
	}
	return *found, nil
}

func (d *Delegation) AppsForUser(ctx context.Context, userId string) ([]models.App, error) {
	low, high := store.RangeBounds(appType)
	var apps []models.App
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		app, err := decodeApp(key, value)
		if err != nil {
			return false, err
		}
		if app.User == userId {
			apps = append(apps, app)
		}
		return false, nil
	})
	return apps, err
}

func decodeApp(key string, value []byte) (models.App, error) {
	app, err := store.DecodeJSON[models.App](value)
	if err != nil {
		return models.App{}, err
	}
	_, id, _ := store.SplitKey(key)
	app.Id = id
	return app, nil
}
