package rest

import (
	"net/http"
	"net/url"

	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/service"
)

// HandleHandshakeStart records the app's request and bounces the browser
// to the local approval UI.
func (h *Handler) HandleHandshakeStart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	id, err := h.Service.StartHandshake(r.Context(), service.StartRequest{
		App:        q.Get("app"),
		Redirect:   q.Get("redirect"),
		Scopes:     q.Get("scopes"),
		FileScopes: q.Get("fileScopes"),
		DbScopes:   q.Get("dbScopes"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	target := "/handshake?handshake=" + id
	if username := q.Get("username"); username != "" {
		target += "&username=" + url.QueryEscape(username)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// handshakeForRequest resolves the calling user and loads the handshake
// from the path. Expiry is checked on load; an expired handshake is gone
// by the time this returns an error.
func (h *Handler) handshakeForRequest(r *http.Request) (models.AppHandshake, principal, error) {
	p, err := h.resolveUser(r)
	if err != nil {
		return models.AppHandshake{}, principal{}, err
	}

	hs, err := h.Service.GetHandshake(r.Context(), r.PathValue("id"))
	if err != nil {
		return models.AppHandshake{}, principal{}, err
	}
	return hs, p, nil
}

func (h *Handler) HandleHandshakeInfo(w http.ResponseWriter, r *http.Request) {
	hs, p, err := h.handshakeForRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	info, err := h.Service.HandshakeInfo(r.Context(), hs, p.user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, info)
}

func (h *Handler) HandleHandshakeApprove(w http.ResponseWriter, r *http.Request) {
	hs, p, err := h.handshakeForRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	target, err := h.Service.ApproveHandshake(r.Context(), hs, p.user, service.ApproveRequest{
		Store:        q.Get("store"),
		Db:           q.Get("db"),
		StoreURL:     q.Get("storeUrl"),
		StoreSession: q.Get("storeSession"),
		DbURL:        q.Get("dbUrl"),
		DbSession:    q.Get("dbSession"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) HandleHandshakeCancel(w http.ResponseWriter, r *http.Request) {
	hs, _, err := h.handshakeForRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	target, err := h.Service.CancelHandshake(r.Context(), hs)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
