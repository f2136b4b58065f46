package service

import (
	"context"
	"errors"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

// MasterKeyView is what the owner sees; the raw key stays server-side.
type MasterKeyView struct {
	Id   string               `json:"id"`
	Type models.MasterKeyType `json:"type"`
	Name string               `json:"name,omitempty"`
	URL  string               `json:"url"`
}

func viewMasterKey(key models.MasterKey) MasterKeyView {
	return MasterKeyView{Id: key.Id, Type: key.Type, Name: key.Name, URL: key.URL}
}

func (s *Service) AddMasterKey(ctx context.Context, user models.User, keyType models.MasterKeyType, name, url, rawKey string) (MasterKeyView, error) {
	if keyType != models.MasterKeyFile && keyType != models.MasterKeyDb {
		return MasterKeyView{}, errs.Malformed("Master key type must be \"file\" or \"db\"!")
	}
	if url == "" || rawKey == "" {
		return MasterKeyView{}, errs.Malformed("Master key must have a url and a key!")
	}

	key := models.MasterKey{
		User: user.Id,
		Type: keyType,
		Name: name,
		URL:  url,
		Key:  rawKey,
	}
	id, err := s.Delegation.CreateMasterKey(ctx, key)
	if err != nil {
		return MasterKeyView{}, err
	}
	key.Id = id
	return viewMasterKey(key), nil
}

func (s *Service) ListMasterKeys(ctx context.Context, user models.User) ([]MasterKeyView, error) {
	keys, err := s.Delegation.MasterKeysForUser(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	views := make([]MasterKeyView, len(keys))
	for i, key := range keys {
		views[i] = viewMasterKey(key)
	}
	return views, nil
}

func (s *Service) GetMasterKey(ctx context.Context, user models.User, id string) (MasterKeyView, error) {
	key, err := s.ownedMasterKey(ctx, user, id)
	if err != nil {
		return MasterKeyView{}, err
	}
	return viewMasterKey(key), nil
}

// UpdateMasterKey renames a key; the url and raw key are immutable, a new
// credential means a new key record.
func (s *Service) UpdateMasterKey(ctx context.Context, user models.User, id, name string) (MasterKeyView, error) {
	key, err := s.ownedMasterKey(ctx, user, id)
	if err != nil {
		return MasterKeyView{}, err
	}
	key.Name = name
	if err := s.Delegation.PutMasterKey(ctx, id, key); err != nil {
		return MasterKeyView{}, err
	}
	return viewMasterKey(key), nil
}

// DeleteMasterKey is idempotent: deleting a missing or foreign key is a
// silent success so existence is not leaked.
func (s *Service) DeleteMasterKey(ctx context.Context, user models.User, id string) error {
	key, err := s.Delegation.GetMasterKey(ctx, id)
	if errors.Is(err, store.ErrItemNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if key.User != user.Id {
		return nil
	}
	return s.Delegation.DeleteMasterKey(ctx, id)
}

func (s *Service) ownedMasterKey(ctx context.Context, user models.User, id string) (models.MasterKey, error) {
	key, err := s.Delegation.GetMasterKey(ctx, id)
	if errors.Is(err, store.ErrItemNotFound) {
		return models.MasterKey{}, errs.NotFound("No master key found with id \"" + id + "\"!")
	} else if err != nil {
		return models.MasterKey{}, err
	}
	if key.User != user.Id {
		return models.MasterKey{}, errs.NotFound("No master key found with id \"" + id + "\"!")
	}
	return key, nil
}
