package delegation

import (
	"context"
	"errors"
	"time"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/hashing"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

// CreateHandshake stores a fresh handshake record. Approval-time fields are
// cleared: a handshake starts life unapproved no matter what the caller
// passed in.
func (d *Delegation) CreateHandshake(ctx context.Context, hs models.AppHandshake) (string, error) {
	id, err := d.newRecordId(ctx, handshakeType)
	if err != nil {
		return "", err
	}
	hs.Id = ""
	hs.Code = ""
	hs.User = ""
	hs.Store = nil
	hs.Db = nil
	hs.Created = time.Now().UnixMilli()
	return id, store.PutJSON(ctx, d.store, store.Key(handshakeType, id), hs)
}

// GetHandshake applies the lazy expiry check: a handshake past its TTL is
// deleted on access and reported as not found.
func (d *Delegation) GetHandshake(ctx context.Context, id string) (models.AppHandshake, error) {
	hs, err := store.GetJSON[models.AppHandshake](ctx, d.store, store.Key(handshakeType, id))
	if errors.Is(err, store.ErrItemNotFound) {
		return models.AppHandshake{}, errs.NotFound("No handshake found with id \"" + id + "\"!")
	} else if err != nil {
		return models.AppHandshake{}, err
	}
	hs.Id = id

	if time.UnixMilli(hs.Created).Add(d.handshakeTTL).Before(time.Now()) {
		if err := d.DeleteHandshake(ctx, id); err != nil {
			return models.AppHandshake{}, err
		}
		return models.AppHandshake{}, errs.NotFound("Handshake expired!")
	}
	return hs, nil
}

func (d *Delegation) PutHandshake(ctx context.Context, id string, hs models.AppHandshake) error {
	hs.Id = ""
	return store.PutJSON(ctx, d.store, store.Key(handshakeType, id), hs)
}

func (d *Delegation) DeleteHandshake(ctx context.Context, id string) error {
	return d.store.Delete(ctx, store.Key(handshakeType, id))
}

// FindHandshakeByCode resolves a one-time authorization code by scanning the
// handshake range; codes have no index of their own.
func (d *Delegation) FindHandshakeByCode(ctx context.Context, code string) (models.AppHandshake, error) {
	if code == "" {
		return models.AppHandshake{}, store.ErrItemNotFound
	}
	low, high := store.RangeBounds(handshakeType)
	var found *models.AppHandshake
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		hs, err := decodeHandshake(key, value)
		if err != nil {
			return false, err
		}
		if hs.Code == code {
			found = &hs
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return models.AppHandshake{}, err
	}
	if found == nil {
		return models.AppHandshake{}, store.ErrItemNotFound
	}
	return *found, nil
}

// NewHandshakeCode draws a one-time code, re-checked for uniqueness against
// every live handshake.
func (d *Delegation) NewHandshakeCode(ctx context.Context) (string, error) {
	for {
		code := hashing.RandomCode()
		_, err := d.FindHandshakeByCode(ctx, code)
		if errors.Is(err, store.ErrItemNotFound) {
			return code, nil
		} else if err != nil {
			return "", err
		}
	}
}

// SweepExpiredHandshakes deletes every handshake past its TTL.
func (d *Delegation) SweepExpiredHandshakes(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-d.handshakeTTL).UnixMilli()
	low, high := store.RangeBounds(handshakeType)
	var expired []string
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		hs, err := decodeHandshake(key, value)
		if err != nil {
			return false, err
		}
		if hs.Created < cutoff {
			expired = append(expired, key)
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}
	return len(expired), d.store.BatchDelete(ctx, expired)
}

func decodeHandshake(key string, value []byte) (models.AppHandshake, error) {
	hs, err := store.DecodeJSON[models.AppHandshake](value)
	if err != nil {
		return models.AppHandshake{}, err
	}
	_, id, _ := store.SplitKey(key)
	hs.Id = id
	return hs, nil
}
