package service

import (
	"context"
	"log"

	"github.com/zlnvch/homegate/cache"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
)

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", errs.Malformed("Must have a username and password!")
	}

	user, err := s.Identity.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	return s.Identity.CreateSession(ctx, user.Id)
}

// Register creates the account locally, then registers the same username
// against the configured store and db services so the remote accounts share
// the credential. Propagation failures are logged, not surfaced; the local
// account stands either way.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.Malformed("Must have a username and password!")
	}

	user, err := s.Identity.Register(ctx, username, password)
	if err != nil {
		return err
	}

	if s.StoreURL != "" {
		if err := s.Remote.Register(ctx, s.StoreURL, user.Username, user.Pass); err != nil {
			log.Println("Error registering for store:", err)
		}
	}
	if s.DBURL != "" {
		if err := s.Remote.Register(ctx, s.DBURL, user.Username, user.Pass); err != nil {
			log.Println("Error registering for db:", err)
		}
	}
	return nil
}

func (s *Service) CanRegister() bool {
	return s.Identity.RegistrationOpen()
}

// ChangePassword rotates the credential, revokes every other session for the
// user, and walks the remote services through their own change-pass flow
// using the old and new hashes as the remote passwords.
func (s *Service) ChangePassword(ctx context.Context, user models.User, sessionId, password, newPassword string) error {
	if password == "" || newPassword == "" {
		return errs.Malformed("Body must have a password, and a newpass.")
	}

	oldPass := user.Pass

	updated, revoked, err := s.Identity.ChangePassword(ctx, user, password, newPassword, sessionId)
	if err != nil {
		return err
	}

	if err := s.Cache.InvalidateSessions(ctx, cache.KindUser, revoked); err != nil {
		log.Println("Error invalidating revoked sessions:", err)
	}

	if s.StoreURL != "" {
		if err := s.changeRemotePassword(ctx, s.StoreURL, updated.Username, oldPass, updated.Pass); err != nil {
			log.Println("Error changing store password:", err)
		}
	}
	if s.DBURL != "" {
		if err := s.changeRemotePassword(ctx, s.DBURL, updated.Username, oldPass, updated.Pass); err != nil {
			log.Println("Error changing db password:", err)
		}
	}
	return nil
}

func (s *Service) changeRemotePassword(ctx context.Context, url, username, oldPass, newPass string) error {
	sid, err := s.Remote.Login(ctx, url, username, oldPass, nil)
	if err != nil {
		return err
	}
	if err := s.Remote.ChangePassword(ctx, url, sid, oldPass, newPass); err != nil {
		return err
	}
	return s.Remote.Logout(ctx, url, sid)
}

func (s *Service) LogoutUser(ctx context.Context, sessionId string) error {
	if err := s.Identity.DeleteSession(ctx, sessionId); err != nil {
		return err
	}
	return s.invalidate(ctx, cache.KindUser, sessionId)
}

func (s *Service) LogoutApp(ctx context.Context, sessionId string) error {
	if err := s.Delegation.DeleteAppSession(ctx, sessionId); err != nil {
		return err
	}
	return s.invalidate(ctx, cache.KindApp, sessionId)
}

// RefreshUserSession replaces the presented session with a freshly minted
// one for the same user.
func (s *Service) RefreshUserSession(ctx context.Context, session models.Session) (string, error) {
	newId, err := s.Identity.CreateSession(ctx, session.User)
	if err != nil {
		return "", err
	}
	if err := s.Identity.DeleteSession(ctx, session.Id); err != nil {
		return "", err
	}
	return newId, s.invalidate(ctx, cache.KindUser, session.Id)
}

// RefreshAppSession does the same for a delegated session, carrying the
// negotiated scopes forward unchanged.
func (s *Service) RefreshAppSession(ctx context.Context, appSession models.AppSession) (string, error) {
	newId, err := s.Delegation.CreateAppSession(ctx, appSession.App, appSession.User, appSession.FileScopes, appSession.DbScopes)
	if err != nil {
		return "", err
	}
	if err := s.Delegation.DeleteAppSession(ctx, appSession.Id); err != nil {
		return "", err
	}
	return newId, s.invalidate(ctx, cache.KindApp, appSession.Id)
}

func (s *Service) invalidate(ctx context.Context, kind, id string) error {
	if err := s.Cache.InvalidateSessions(ctx, kind, []string{id}); err != nil {
		log.Println("Error invalidating session:", err)
	}
	return nil
}
