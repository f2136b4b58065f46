package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/store"
)

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, testStoreURL, "alice", mock.Anything).Return(nil)
	mockRemote.On("Register", mock.Anything, testDBURL, "alice", mock.Anything).Return(nil)

	err := svc.Register(ctx, "alice", "hunter2")
	assert.NoError(t, err)

	sid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)
	assert.NotEmpty(t, sid)

	session, user, err := svc.ResolveUserSession(ctx, sid)
	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, user.Id, session.User)

	// Registration is propagated to both remote services using the stored
	// hash as the remote credential, never the raw password.
	mockRemote.AssertNumberOfCalls(t, "Register", 2)
	for _, call := range mockRemote.Calls {
		assert.NotEqual(t, "hunter2", call.Arguments.String(3))
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	err := svc.Register(ctx, "alice", "other")
	assert.True(t, errs.Is(err, errs.KindConflict))
	assert.EqualError(t, err, "Username taken!")
}

func TestLoginEnumerationResistance(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	_, errWrongPass := svc.Login(ctx, "alice", "wrong")
	_, errUnknownUser := svc.Login(ctx, "nobody", "hunter2")

	assert.True(t, errs.Is(errWrongPass, errs.KindAuth))
	assert.True(t, errs.Is(errUnknownUser, errs.KindAuth))
	assert.Equal(t, errWrongPass.Error(), errUnknownUser.Error())
}

func TestWhitelistBlocksRegistration(t *testing.T) {
	svc, _, _, _, _ := setupServiceTTL(t, 168*time.Hour, 5*time.Minute, []string{"alice"})
	ctx := context.Background()

	err := svc.Register(ctx, "mallory", "hunter2")
	assert.True(t, errs.Is(err, errs.KindNotAllowed))
	assert.EqualError(t, err, "Whitelist is active.")

	assert.False(t, svc.CanRegister())
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRemote.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("remote-sid", nil)
	mockRemote.On("ChangePassword", mock.Anything, mock.Anything, "remote-sid", mock.Anything, mock.Anything).Return(nil)
	mockRemote.On("Logout", mock.Anything, mock.Anything, "remote-sid").Return(nil)

	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	oldSid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)
	keptSid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)

	_, user, err := svc.ResolveUserSession(ctx, keptSid)
	assert.NoError(t, err)

	err = svc.ChangePassword(ctx, user, keptSid, "hunter2", "correct horse")
	assert.NoError(t, err)

	// The session used to make the change survives; every other one is gone.
	_, _, err = svc.ResolveUserSession(ctx, keptSid)
	assert.NoError(t, err)

	_, _, err = svc.ResolveUserSession(ctx, oldSid)
	assert.True(t, errs.Is(err, errs.KindAuth))

	_, err = svc.Login(ctx, "alice", "hunter2")
	assert.True(t, errs.Is(err, errs.KindAuth))

	sid, err := svc.Login(ctx, "alice", "correct horse")
	assert.NoError(t, err)
	assert.NotEmpty(t, sid)
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	sid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)
	_, user, err := svc.ResolveUserSession(ctx, sid)
	assert.NoError(t, err)

	err = svc.ChangePassword(ctx, user, sid, "wrong", "new")
	assert.True(t, errs.Is(err, errs.KindNotAllowed))
	assert.EqualError(t, err, "Password mismatch.")
}

func TestRefreshReplacesSession(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	sid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)
	session, _, err := svc.ResolveUserSession(ctx, sid)
	assert.NoError(t, err)

	newSid, err := svc.RefreshUserSession(ctx, session)
	assert.NoError(t, err)
	assert.NotEqual(t, sid, newSid)

	_, _, err = svc.ResolveUserSession(ctx, newSid)
	assert.NoError(t, err)

	_, _, err = svc.ResolveUserSession(ctx, sid)
	assert.True(t, errs.Is(err, errs.KindAuth))
}

func TestLogout(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	sid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)

	assert.NoError(t, svc.LogoutUser(ctx, sid))

	_, _, err = svc.ResolveUserSession(ctx, sid)
	assert.True(t, errs.Is(err, errs.KindAuth))
}

func TestSweepDeletesOnlyExpiredSessions(t *testing.T) {
	svc, recordStore, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))

	liveSid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)

	_, user, err := svc.ResolveUserSession(ctx, liveSid)
	assert.NoError(t, err)

	liveAppSid := issueAppSession(t, svc, user)
	liveHandshake := startHandshake(t, svc, "home")

	// Plant one record of each kind created well past its TTL.
	expiredSession := models.Session{User: user.Id, Created: time.Now().Add(-200 * time.Hour).UnixMilli()}
	assert.NoError(t, store.PutJSON(ctx, recordStore, store.Key("session", "expired-session"), expiredSession))

	expiredAppSession := models.AppSession{App: "gone-app", User: user.Id, Created: time.Now().Add(-200 * time.Hour).UnixMilli()}
	assert.NoError(t, store.PutJSON(ctx, recordStore, store.Key("appsession", "expired-appsession"), expiredAppSession))

	expiredHandshake := models.AppHandshake{AppName: "notes", Redirect: "https://notes.example/cb", Scopes: "home", Created: time.Now().Add(-time.Hour).UnixMilli()}
	assert.NoError(t, store.PutJSON(ctx, recordStore, store.Key("apphandshake", "expired-handshake"), expiredHandshake))

	assert.NoError(t, svc.SweepExpired(ctx))

	_, err = recordStore.Get(ctx, store.Key("session", "expired-session"))
	assert.ErrorIs(t, err, store.ErrItemNotFound)
	_, err = recordStore.Get(ctx, store.Key("appsession", "expired-appsession"))
	assert.ErrorIs(t, err, store.ErrItemNotFound)
	_, err = recordStore.Get(ctx, store.Key("apphandshake", "expired-handshake"))
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	_, _, err = svc.ResolveUserSession(ctx, liveSid)
	assert.NoError(t, err)
	_, _, _, err = svc.ResolveAppSession(ctx, liveAppSid, true)
	assert.NoError(t, err)
	_, err = svc.GetHandshake(ctx, liveHandshake.Id)
	assert.NoError(t, err)
}
