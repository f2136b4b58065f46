package delegation

import (
	"context"

	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

// master keys

func (d *Delegation) CreateMasterKey(ctx context.Context, key models.MasterKey) (string, error) {
	id, err := d.newRecordId(ctx, masterKeyType)
	if err != nil {
		return "", err
	}
	key.Id = ""
	return id, store.PutJSON(ctx, d.store, store.Key(masterKeyType, id), key)
}

func (d *Delegation) GetMasterKey(ctx context.Context, id string) (models.MasterKey, error) {
	key, err := store.GetJSON[models.MasterKey](ctx, d.store, store.Key(masterKeyType, id))
	if err != nil {
		return models.MasterKey{}, err
	}
	key.Id = id
	return key, nil
}

func (d *Delegation) PutMasterKey(ctx context.Context, id string, key models.MasterKey) error {
	key.Id = ""
	return store.PutJSON(ctx, d.store, store.Key(masterKeyType, id), key)
}

func (d *Delegation) DeleteMasterKey(ctx context.Context, id string) error {
	return d.store.Delete(ctx, store.Key(masterKeyType, id))
}

func (d *Delegation) MasterKeysForUser(ctx context.Context, userId string) ([]models.MasterKey, error) {
	low, high := store.RangeBounds(masterKeyType)
	var keys []models.MasterKey
	err := d.store.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		mk, err := store.DecodeJSON[models.MasterKey](value)
		if err != nil {
			return false, err
		}
		_, id, _ := store.SplitKey(key)
		mk.Id = id
		if mk.User == userId {
			keys = append(keys, mk)
		}
		return false, nil
	})
	return keys, err
}

func (d *Delegation) DeleteMasterKeys(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.Key(masterKeyType, id)
	}
	return d.store.BatchDelete(ctx, keys)
}
