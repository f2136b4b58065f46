package rest

import (
	"net/http"

	"github.com/zlnvch/homegate/service"
)

func (h *Handler) HandleGetSelf(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.resolveAppOptional(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if ok {
		h.sendResponse(w, service.ViewApp(p.app))
		return
	}

	p, err = h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, service.ViewUser(p.user))
}

// HandleDeleteSelf removes whoever is calling: a user deletes their
// account, an app revokes its own registration.
func (h *Handler) HandleDeleteSelf(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.resolveAppOptional(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if ok {
		err = h.Service.DeleteSelfApp(r.Context(), p.app)
	} else {
		p, err = h.resolveUser(r)
		if err != nil {
			writeError(w, err)
			return
		}
		err = h.Service.DeleteSelfUser(r.Context(), p.user)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListApps(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	views, err := h.Service.ListApps(r.Context(), p.user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, views)
}

func (h *Handler) HandleDeleteApp(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.DeleteApp(r.Context(), p.user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListAppSessions(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	views, err := h.Service.ListAppSessions(r.Context(), p.user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, views)
}

func (h *Handler) HandleDeleteAppSession(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.DeleteAppSession(r.Context(), p.user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
