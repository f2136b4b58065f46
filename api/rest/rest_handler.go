package rest

import (
	"encoding/json"
	"net/http"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/service"
)

type Handler struct {
	Service *service.Service

	authLimiter *clientLimiter
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Service:     svc,
		authLimiter: newClientLimiter(),
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.authLimiter.allow(r) {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	sid, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, sid)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.authLimiter.allow(r) {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	if err := h.Service.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCanRegister(w http.ResponseWriter, r *http.Request) {
	h.sendResponse(w, h.Service.CanRegister())
}

type changePassRequest struct {
	Password string `json:"password"`
	NewPass  string `json:"newpass"`
}

func (h *Handler) HandleChangePass(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req changePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	if err := h.Service.ChangePassword(r.Context(), p.user, p.session.Id, req.Password, req.NewPass); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveEither(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if p.isApp {
		err = h.Service.LogoutApp(r.Context(), p.appSession.Id)
	} else {
		err = h.Service.LogoutUser(r.Context(), p.session.Id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveEither(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var sid string
	if p.isApp {
		sid, err = h.Service.RefreshAppSession(r.Context(), p.appSession)
	} else {
		sid, err = h.Service.RefreshUserSession(r.Context(), p.session)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, sid)
}

// HandleExchange is the server-to-server half of the handshake: the app
// trades its one-time code for the scoped session bundle.
func (h *Handler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	var req service.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	bundle, err := h.Service.ExchangeCode(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, bundle)
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
