package service

import (
	"context"
	"errors"
	"log"

	"github.com/zlnvch/homegate/cache"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

type UserView struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type AppView struct {
	Id         string   `json:"id"`
	App        string   `json:"app"`
	FileScopes []string `json:"fileScopes,omitempty"`
	DbScopes   []string `json:"dbScopes,omitempty"`
}

type AppSessionView struct {
	Id      string `json:"id"`
	App     string `json:"app"`
	Created int64  `json:"created"`
}

func ViewApp(app models.App) AppView {
	return AppView{Id: app.Id, App: app.Name, FileScopes: app.FileScopes, DbScopes: app.DbScopes}
}

func ViewUser(user models.User) UserView {
	return UserView{Id: user.Id, Username: user.Username}
}

// DeleteSelfUser removes the account record immediately and hands the
// cascade (apps, sessions, app-sessions, master keys) to the purge queue.
func (s *Service) DeleteSelfUser(ctx context.Context, user models.User) error {
	if err := s.Identity.DeleteUser(ctx, user.Id); err != nil {
		return err
	}
	return s.EnqueueAccountPurge(ctx, user.Id)
}

// DeleteSelfApp is an app revoking its own registration.
func (s *Service) DeleteSelfApp(ctx context.Context, app models.App) error {
	return s.deleteAppAndSessions(ctx, app.Id)
}

func (s *Service) ListApps(ctx context.Context, user models.User) ([]AppView, error) {
	apps, err := s.Delegation.AppsForUser(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	views := make([]AppView, len(apps))
	for i, app := range apps {
		views[i] = ViewApp(app)
	}
	return views, nil
}

// DeleteApp revokes one of the caller's registered apps along with every
// session issued to it.
func (s *Service) DeleteApp(ctx context.Context, user models.User, appId string) error {
	app, err := s.Delegation.GetApp(ctx, appId)
	if errors.Is(err, store.ErrItemNotFound) {
		return errs.NotFound("No app found with id \"" + appId + "\"!")
	} else if err != nil {
		return err
	}
	if app.User != user.Id {
		return errs.NotFound("No app found with id \"" + appId + "\"!")
	}
	return s.deleteAppAndSessions(ctx, appId)
}

func (s *Service) ListAppSessions(ctx context.Context, user models.User) ([]AppSessionView, error) {
	sessions, err := s.Delegation.AppSessionsForUser(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	views := make([]AppSessionView, len(sessions))
	for i, session := range sessions {
		views[i] = AppSessionView{Id: session.Id, App: session.App, Created: session.Created}
	}
	return views, nil
}

func (s *Service) DeleteAppSession(ctx context.Context, user models.User, id string) error {
	session, err := s.Delegation.GetAppSession(ctx, id)
	if errors.Is(err, store.ErrItemNotFound) {
		return errs.NotFound("No app-session found with id \"" + id + "\"!")
	} else if err != nil {
		return err
	}
	if session.User != user.Id {
		return errs.NotFound("No app-session found with id \"" + id + "\"!")
	}
	if err := s.Delegation.DeleteAppSession(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, cache.KindApp, id)
}

func (s *Service) deleteAppAndSessions(ctx context.Context, appId string) error {
	sessions, err := s.Delegation.AppSessionsForApp(ctx, appId)
	if err != nil {
		return err
	}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.Id
	}
	if err := s.Delegation.DeleteAppSessions(ctx, ids); err != nil {
		return err
	}
	if err := s.Cache.InvalidateSessions(ctx, cache.KindApp, ids); err != nil {
		log.Println("Error invalidating app sessions:", err)
	}
	return s.Delegation.DeleteApp(ctx, appId)
}
