package rest

import (
	"net/http"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
)

// principal is the resolved caller of a request: always a user, plus the
// delegated app when the presented session id was an app-session.
type principal struct {
	user models.User

	// user-session mode
	session models.Session

	// app-session mode
	appSession models.AppSession
	app        models.App
	isApp      bool
}

func sessionId(r *http.Request) string {
	return r.URL.Query().Get("sid")
}

// resolveUser accepts only a user session.
func (h *Handler) resolveUser(r *http.Request) (principal, error) {
	session, user, err := h.Service.ResolveUserSession(r.Context(), sessionId(r))
	if err != nil {
		return principal{}, err
	}
	return principal{user: user, session: session}, nil
}

// resolveApp accepts only an app-session. withUser additionally resolves
// the approving user; routes that act on the session alone skip the lookup.
func (h *Handler) resolveApp(r *http.Request, withUser bool) (principal, error) {
	appSession, app, user, err := h.Service.ResolveAppSession(r.Context(), sessionId(r), withUser)
	if err != nil {
		return principal{}, err
	}
	return principal{user: user, appSession: appSession, app: app, isApp: true}, nil
}

// resolveAppOptional is app-session resolution for routes that also serve
// another kind of caller: a failed resolution hands the request on instead
// of failing it. Non-auth errors still propagate.
func (h *Handler) resolveAppOptional(r *http.Request) (principal, bool, error) {
	p, err := h.resolveApp(r, true)
	if errs.Is(err, errs.KindAuth) {
		return principal{}, false, nil
	} else if err != nil {
		return principal{}, false, err
	}
	return p, true, nil
}

// resolveEither tries app-session resolution first and falls back to the
// user-session collection; the two id spaces are disjoint so a hit in one
// can never shadow the other.
func (h *Handler) resolveEither(r *http.Request) (principal, error) {
	p, ok, err := h.resolveAppOptional(r)
	if err != nil {
		return principal{}, err
	}
	if ok {
		return p, nil
	}

	session, user, err := h.Service.ResolveUserSession(r.Context(), sessionId(r))
	if err != nil {
		return principal{}, errs.Auth("No session found!")
	}
	return principal{user: user, session: session}, nil
}

// narrowScopes clamps a requested scope list against the grant an
// app-session carries, preserving request order. Callers forwarding to the
// file store pass the session's fileScopes as the grant, db callers its
// dbScopes; an app can never widen past what was negotiated at exchange.
func (p principal) narrowScopes(requested []string, granted []string) []string {
	if !p.isApp {
		return requested
	}
	allowed := make(map[string]bool, len(granted))
	for _, scope := range granted {
		allowed[scope] = true
	}
	var narrowed []string
	for _, scope := range requested {
		if allowed[scope] {
			narrowed = append(narrowed, scope)
		}
	}
	return narrowed
}
