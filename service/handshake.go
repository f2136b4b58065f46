package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/hashing"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

type StartRequest struct {
	App        string
	Redirect   string
	Scopes     string
	FileScopes string // JSON array, optional
	DbScopes   string // JSON array, optional
}

// StartHandshake records the application's request and returns the
// handshake id the approval UI picks up.
func (s *Service) StartHandshake(ctx context.Context, req StartRequest) (string, error) {
	if req.App == "" || req.Redirect == "" || req.Scopes == "" {
		return "", errs.Malformed("Must have ?app={app}&redirect={url}&scopes={scopes}<&fileScopes=[\"/scopes\"]> query.")
	}

	hs := models.AppHandshake{
		AppName:  req.App,
		Redirect: req.Redirect,
		Scopes:   NormalizeScopes(req.Scopes),
	}

	if req.FileScopes != "" {
		if err := json.Unmarshal([]byte(req.FileScopes), &hs.FileScopes); err != nil {
			return "", errs.Malformed("Could not parse fileScopes query; should be a JSON array.")
		}
	}
	if req.DbScopes != "" {
		if err := json.Unmarshal([]byte(req.DbScopes), &hs.DbScopes); err != nil {
			return "", errs.Malformed("Could not parse dbScopes query; should be a JSON array.")
		}
	}

	return s.Delegation.CreateHandshake(ctx, hs)
}

func (s *Service) GetHandshake(ctx context.Context, id string) (models.AppHandshake, error) {
	return s.Delegation.GetHandshake(ctx, id)
}

type TargetOption struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Key  string `json:"key,omitempty"`
}

type HandshakeInfo struct {
	App        string   `json:"app"`
	Scopes     string   `json:"scopes"`
	FileScopes []string `json:"fileScopes,omitempty"`
	DbScopes   []string `json:"dbScopes,omitempty"`

	Stores []TargetOption `json:"stores"`
	Dbs    []TargetOption `json:"dbs"`
}

// HandshakeInfo describes a pending handshake to the approval UI: what the
// app asked for, plus the store/db targets this user can delegate to. The
// targets are the deployment's own services and the user's master keys.
func (s *Service) HandshakeInfo(ctx context.Context, hs models.AppHandshake, user models.User) (HandshakeInfo, error) {
	info := HandshakeInfo{
		App:        hs.AppName,
		Scopes:     hs.Scopes,
		FileScopes: hs.FileScopes,
		DbScopes:   hs.DbScopes,
		Stores:     []TargetOption{},
		Dbs:        []TargetOption{},
	}

	if s.StoreURL != "" {
		info.Stores = append(info.Stores, TargetOption{Name: "local", URL: s.StoreURL})
	}
	if s.DBURL != "" {
		info.Dbs = append(info.Dbs, TargetOption{Name: "local", URL: s.DBURL})
	}

	keys, err := s.Delegation.MasterKeysForUser(ctx, user.Id)
	if err != nil {
		return HandshakeInfo{}, err
	}
	for _, key := range keys {
		option := TargetOption{Name: key.Name, URL: key.URL, Key: key.Id}
		if option.Name == "" {
			option.Name = key.URL
		}
		switch key.Type {
		case models.MasterKeyFile:
			info.Stores = append(info.Stores, option)
		case models.MasterKeyDb:
			info.Dbs = append(info.Dbs, option)
		}
	}

	return info, nil
}

type ApproveRequest struct {
	Store        string
	Db           string
	StoreURL     string
	StoreSession string
	DbURL        string
	DbSession    string
}

// ApproveHandshake resolves the user's store/db choices into descriptors,
// mints the one-time code, and returns the redirect target carrying it. A
// choice must be supplied exactly when the matching scope was requested;
// extra choices are accepted and recorded.
func (s *Service) ApproveHandshake(ctx context.Context, hs models.AppHandshake, user models.User, req ApproveRequest) (string, error) {
	if req.Store == "" && HasScope(hs.Scopes, "store") {
		return "", errs.Malformed("Store scope is required but not provided by query!")
	}
	if req.Db == "" && HasScope(hs.Scopes, "db") {
		return "", errs.Malformed("DB scope is required but not provided by query!")
	}

	var storeInfo, dbInfo *models.Descriptor
	var err error

	if req.Store != "" {
		storeInfo, err = s.resolveChoice(ctx, user, models.MasterKeyFile, req.Store, req.StoreURL, req.StoreSession)
		if err != nil {
			return "", err
		}
	}
	if req.Db != "" {
		dbInfo, err = s.resolveChoice(ctx, user, models.MasterKeyDb, req.Db, req.DbURL, req.DbSession)
		if err != nil {
			return "", err
		}
	}

	code, err := s.Delegation.NewHandshakeCode(ctx)
	if err != nil {
		return "", err
	}

	hs.User = user.Id
	hs.Code = code
	hs.Store = storeInfo
	hs.Db = dbInfo
	if err := s.Delegation.PutHandshake(ctx, hs.Id, hs); err != nil {
		return "", err
	}

	return hs.Redirect + "?code=" + code, nil
}

// resolveChoice turns an approval query value into a descriptor. The value
// is "local", "custom" (with inline url+session), or the id of one of the
// caller's own master keys. A key that is missing, foreign, or the wrong
// type is reported with the same not-found error so callers learn nothing
// about other users' keys.
func (s *Service) resolveChoice(ctx context.Context, user models.User, keyType models.MasterKeyType, choice, customURL, customSession string) (*models.Descriptor, error) {
	slot := "store"
	if keyType == models.MasterKeyDb {
		slot = "db"
	}

	switch choice {
	case "local":
		return &models.Descriptor{Type: models.DescriptorLocal}, nil

	case "custom":
		if customURL == "" || customSession == "" {
			if slot == "db" {
				return nil, errs.Malformed("A custom db must also have &dbUrl=.. and &dbSession=.. queries!")
			}
			return nil, errs.Malformed("A custom store must also have &storeUrl=.. and &storeSession=.. queries!")
		}
		return &models.Descriptor{Type: models.DescriptorCustom, URL: customURL, Session: customSession}, nil

	default:
		key, err := s.Delegation.GetMasterKey(ctx, choice)
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, errs.NotFound("No " + slot + " target found: " + choice)
		} else if err != nil {
			return nil, err
		}
		if key.User != user.Id || key.Type != keyType {
			return nil, errs.NotFound("No " + slot + " target found: " + choice)
		}
		return &models.Descriptor{Type: models.DescriptorKey, Key: key.Id}, nil
	}
}

// CancelHandshake discards the handshake and returns the redirect target
// reporting the denial.
func (s *Service) CancelHandshake(ctx context.Context, hs models.AppHandshake) (string, error) {
	if err := s.Delegation.DeleteHandshake(ctx, hs.Id); err != nil {
		return "", err
	}
	return hs.Redirect + "?error=access_denied", nil
}

type ExchangeRequest struct {
	App      string `json:"app"`
	Redirect string `json:"redirect"`
	Scopes   string `json:"scopes"`
	Code     string `json:"code"`
	Secret   string `json:"secret"`
}

type TokenEntry struct {
	Type    models.DescriptorType `json:"type,omitempty"`
	URL     string                `json:"url"`
	Session string                `json:"session"`
}

// TokenBundle carries one entry per requested scope. A requested slot with
// no descriptor marshals as an explicit null.
type TokenBundle map[string]*TokenEntry

// ExchangeCode is the server-side half of the authorization-code flow. The
// handshake is consumed before anything else is checked: whatever happens
// next, a code is spent the moment it is presented.
func (s *Service) ExchangeCode(ctx context.Context, req ExchangeRequest) (TokenBundle, error) {
	if req.App == "" || req.Redirect == "" || req.Scopes == "" || req.Code == "" || req.Secret == "" {
		return nil, errs.Malformed("Body should contain: { app, redirect, scopes, code, secret }!")
	}

	hs, err := s.Delegation.FindHandshakeByCode(ctx, req.Code)
	if errors.Is(err, store.ErrItemNotFound) {
		return nil, errs.NotFound("Handshake not found with given code!")
	} else if err != nil {
		return nil, err
	}

	if err := s.Delegation.DeleteHandshake(ctx, hs.Id); err != nil {
		return nil, err
	}

	if hs.AppName != req.App || hs.Redirect != req.Redirect || hs.Scopes != req.Scopes {
		return nil, errs.Malformed("Handshake/body mismatch.")
	}

	secretHash := hashing.Hash(hs.AppName, req.Secret)
	scopes := strings.Split(hs.Scopes, ",")

	app, err := s.resolveApp(ctx, hs, secretHash)
	if err != nil {
		return nil, err
	}

	user, err := s.Identity.GetUser(ctx, hs.User)
	if err != nil {
		return nil, err
	}

	bundle := TokenBundle{}

	for _, scope := range scopes {
		switch scope {
		case "home":
			sid, err := s.Delegation.CreateAppSession(ctx, app.Id, user.Id, app.FileScopes, app.DbScopes)
			if err != nil {
				return nil, err
			}
			bundle["home"] = &TokenEntry{URL: s.ServerOrigin, Session: sid}

		case "store":
			entry, err := s.mintEntry(ctx, user, app.Store, s.StoreURL, app.FileScopes)
			if err != nil {
				return nil, err
			}
			bundle["store"] = entry

		case "db":
			entry, err := s.mintEntry(ctx, user, app.Db, s.DBURL, app.DbScopes)
			if err != nil {
				return nil, err
			}
			bundle["db"] = entry
		}
	}

	return bundle, nil
}

// resolveApp finds the app registered for this (name, secret) combo, or
// registers it on first exchange. On a repeat exchange, descriptors the
// new handshake resolved replace the stored ones.
func (s *Service) resolveApp(ctx context.Context, hs models.AppHandshake, secretHash string) (models.App, error) {
	app, err := s.Delegation.FindAppByCombo(ctx, hs.AppName, secretHash)
	if errors.Is(err, store.ErrItemNotFound) {
		app = models.App{
			Name:       hs.AppName,
			Secret:     secretHash,
			User:       hs.User,
			Store:      hs.Store,
			Db:         hs.Db,
			FileScopes: []string{"/appdata/" + hs.AppName + "/" + secretHash},
			DbScopes:   []string{"appdata." + hs.AppName + "." + secretHash},
		}
		if hs.FileScopes != nil {
			app.FileScopes = append([]string(nil), hs.FileScopes...)
		}
		if hs.DbScopes != nil {
			app.DbScopes = append([]string(nil), hs.DbScopes...)
		}

		id, err := s.Delegation.CreateApp(ctx, app)
		if err != nil {
			return models.App{}, err
		}
		app.Id = id
		return app, nil
	} else if err != nil {
		return models.App{}, err
	}

	// Refresh only the slots this handshake resolved. A store-only
	// re-approval must not discard a previously approved db descriptor.
	changed := false
	if hs.Store != nil && !descriptorsEqual(app.Store, hs.Store) {
		app.Store = hs.Store
		changed = true
	}
	if hs.Db != nil && !descriptorsEqual(app.Db, hs.Db) {
		app.Db = hs.Db
		changed = true
	}
	if changed {
		if err := s.Delegation.PutApp(ctx, app.Id, app); err != nil {
			return models.App{}, err
		}
	}
	return app, nil
}

func (s *Service) mintEntry(ctx context.Context, user models.User, desc *models.Descriptor, localURL string, scopes []string) (*TokenEntry, error) {
	if desc == nil {
		return nil, nil
	}

	switch desc.Type {
	case models.DescriptorCustom:
		return &TokenEntry{Type: models.DescriptorCustom, URL: desc.URL, Session: desc.Session}, nil

	case models.DescriptorLocal:
		sid, err := s.Remote.Login(ctx, localURL, user.Username, user.Pass, scopes)
		if err != nil {
			return nil, err
		}
		return &TokenEntry{Type: models.DescriptorLocal, URL: localURL, Session: sid}, nil

	case models.DescriptorKey:
		key, err := s.Delegation.GetMasterKey(ctx, desc.Key)
		if err != nil {
			return nil, err
		}
		sid, err := s.Remote.MintSession(ctx, key.URL, key.Key, scopes)
		if err != nil {
			return nil, err
		}
		return &TokenEntry{Type: models.DescriptorKey, URL: key.URL, Session: sid}, nil
	}
	return nil, nil
}

func descriptorsEqual(a, b *models.Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
