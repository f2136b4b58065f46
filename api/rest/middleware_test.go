package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	cachemocks "github.com/zlnvch/homegate/cache/mocks"
	"github.com/zlnvch/homegate/delegation"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/identity"
	mqmocks "github.com/zlnvch/homegate/mq/mocks"
	remotemocks "github.com/zlnvch/homegate/remote/mocks"
	"github.com/zlnvch/homegate/service"
	"github.com/zlnvch/homegate/store/memory"
)

func setupHandler(t *testing.T) (*Handler, *service.Service) {
	t.Helper()

	recordStore := memory.NewMemoryRecordStore()
	mockCache := new(cachemocks.MockCache)
	mockCache.On("GetSession", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	mockCache.On("SetSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	mockRemote := new(remotemocks.MockAuthority)
	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	idn := identity.New(recordStore, 168*time.Hour, nil)
	del := delegation.New(recordStore, 5*time.Minute, 168*time.Hour, idn.SessionExists)
	svc := service.NewService(idn, del, mockCache, new(mqmocks.MockMQ), mockRemote,
		"https://home.example", "https://store.example", "https://db.example")
	return NewHandler(svc), svc
}

// issueSessions registers a user and runs a full handshake, returning a
// user session id and a delegated app-session id.
func issueSessions(t *testing.T, svc *service.Service) (string, string) {
	t.Helper()
	ctx := context.Background()

	assert.NoError(t, svc.Register(ctx, "alice", "hunter2"))
	userSid, err := svc.Login(ctx, "alice", "hunter2")
	assert.NoError(t, err)
	_, user, err := svc.ResolveUserSession(ctx, userSid)
	assert.NoError(t, err)

	hsId, err := svc.StartHandshake(ctx, service.StartRequest{
		App:      "notes",
		Redirect: "https://notes.example/cb",
		Scopes:   "home",
	})
	assert.NoError(t, err)
	hs, err := svc.GetHandshake(ctx, hsId)
	assert.NoError(t, err)
	target, err := svc.ApproveHandshake(ctx, hs, user, service.ApproveRequest{})
	assert.NoError(t, err)
	code := target[strings.Index(target, "?code=")+len("?code="):]

	bundle, err := svc.ExchangeCode(ctx, service.ExchangeRequest{
		App:      "notes",
		Redirect: "https://notes.example/cb",
		Scopes:   "home",
		Code:     code,
		Secret:   "app-secret",
	})
	assert.NoError(t, err)
	assert.NotNil(t, bundle["home"])
	return userSid, bundle["home"].Session
}

func sidRequest(sid string) *http.Request {
	return httptest.NewRequest("GET", "/self?sid="+sid, nil)
}

func TestResolveAppMode(t *testing.T) {
	h, svc := setupHandler(t)
	userSid, appSid := issueSessions(t, svc)

	p, err := h.resolveApp(sidRequest(appSid), false)
	assert.NoError(t, err)
	assert.True(t, p.isApp)
	assert.Equal(t, "notes", p.app.Name)
	assert.Empty(t, p.user.Id)

	p, err = h.resolveApp(sidRequest(appSid), true)
	assert.NoError(t, err)
	assert.Equal(t, "alice", p.user.Username)

	_, err = h.resolveApp(sidRequest(userSid), true)
	assert.True(t, errs.Is(err, errs.KindAuth))
	assert.EqualError(t, err, "No app-session found!")
}

func TestResolveAppOptionalFallsThrough(t *testing.T) {
	h, svc := setupHandler(t)
	userSid, appSid := issueSessions(t, svc)

	_, ok, err := h.resolveAppOptional(sidRequest(userSid))
	assert.NoError(t, err)
	assert.False(t, ok)

	p, ok, err := h.resolveAppOptional(sidRequest(appSid))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.isApp)
}

func TestResolveEitherAcceptsBothKinds(t *testing.T) {
	h, svc := setupHandler(t)
	userSid, appSid := issueSessions(t, svc)

	p, err := h.resolveEither(sidRequest(userSid))
	assert.NoError(t, err)
	assert.False(t, p.isApp)
	assert.Equal(t, "alice", p.user.Username)

	p, err = h.resolveEither(sidRequest(appSid))
	assert.NoError(t, err)
	assert.True(t, p.isApp)

	_, err = h.resolveEither(sidRequest("bogus"))
	assert.True(t, errs.Is(err, errs.KindAuth))
	assert.EqualError(t, err, "No session found!")
}

func TestNarrowScopesClampsAppCallers(t *testing.T) {
	h, svc := setupHandler(t)
	_, appSid := issueSessions(t, svc)

	p, err := h.resolveApp(sidRequest(appSid), false)
	assert.NoError(t, err)

	granted := p.appSession.FileScopes
	assert.NotEmpty(t, granted)

	// The out-of-grant scope is dropped, grant order follows the request.
	narrowed := p.narrowScopes(append([]string{"/etc"}, granted...), granted)
	assert.Equal(t, granted, narrowed)

	// User sessions pass through unclamped.
	assert.Equal(t, []string{"/etc"}, principal{}.narrowScopes([]string{"/etc"}, granted))
}
