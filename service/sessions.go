package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/zlnvch/homegate/cache"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

// ResolveUserSession resolves a presented session id to the live session
// and its user, reading through the cache. A miss on either record is an
// auth failure, never a not-found: callers cannot distinguish "expired"
// from "never existed".
func (s *Service) ResolveUserSession(ctx context.Context, sessionId string) (models.Session, models.User, error) {
	if sessionId == "" {
		return models.Session{}, models.User{}, errs.Auth("No session found!")
	}

	var session models.Session
	cached, err := s.Cache.GetSession(ctx, cache.KindUser, sessionId)
	if err != nil {
		log.Println("Error reading session cache:", err)
		cached = nil
	}

	if cached != nil {
		if err := json.Unmarshal(cached, &session); err != nil {
			return models.Session{}, models.User{}, err
		}
		session.Id = sessionId
	} else {
		session, err = s.Identity.GetSession(ctx, sessionId)
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Session{}, models.User{}, errs.Auth("No session found!")
		} else if err != nil {
			return models.Session{}, models.User{}, err
		}
		s.cacheSession(ctx, cache.KindUser, sessionId, session)
	}

	user, err := s.Identity.GetUser(ctx, session.User)
	if errors.Is(err, store.ErrItemNotFound) {
		return models.Session{}, models.User{}, errs.Auth("No user found!")
	} else if err != nil {
		return models.Session{}, models.User{}, err
	}

	return session, user, nil
}

// ResolveAppSession resolves a delegated session id to the app session and
// the app it was issued to. When withUser is set the approving user is
// resolved too; app-scoped callers that only act on the session itself skip
// that lookup.
func (s *Service) ResolveAppSession(ctx context.Context, sessionId string, withUser bool) (models.AppSession, models.App, models.User, error) {
	if sessionId == "" {
		return models.AppSession{}, models.App{}, models.User{}, errs.Auth("No app-session found!")
	}

	var appSession models.AppSession
	cached, err := s.Cache.GetSession(ctx, cache.KindApp, sessionId)
	if err != nil {
		log.Println("Error reading session cache:", err)
		cached = nil
	}

	if cached != nil {
		if err := json.Unmarshal(cached, &appSession); err != nil {
			return models.AppSession{}, models.App{}, models.User{}, err
		}
		appSession.Id = sessionId
	} else {
		appSession, err = s.Delegation.GetAppSession(ctx, sessionId)
		if errors.Is(err, store.ErrItemNotFound) {
			return models.AppSession{}, models.App{}, models.User{}, errs.Auth("No app-session found!")
		} else if err != nil {
			return models.AppSession{}, models.App{}, models.User{}, err
		}
		s.cacheSession(ctx, cache.KindApp, sessionId, appSession)
	}

	app, err := s.Delegation.GetApp(ctx, appSession.App)
	if errors.Is(err, store.ErrItemNotFound) {
		return models.AppSession{}, models.App{}, models.User{}, errs.Auth("No app found!")
	} else if err != nil {
		return models.AppSession{}, models.App{}, models.User{}, err
	}

	var user models.User
	if withUser {
		user, err = s.Identity.GetUser(ctx, appSession.User)
		if errors.Is(err, store.ErrItemNotFound) {
			return models.AppSession{}, models.App{}, models.User{}, errs.Auth("No user found!")
		} else if err != nil {
			return models.AppSession{}, models.App{}, models.User{}, err
		}
	}

	return appSession, app, user, nil
}

func (s *Service) cacheSession(ctx context.Context, kind, id string, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		log.Println("Error encoding session for cache:", err)
		return
	}
	if err := s.Cache.SetSession(ctx, kind, id, data); err != nil {
		log.Println("Error writing session cache:", err)
	}
}
