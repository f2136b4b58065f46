package rest

import (
	"encoding/json"
	"net/http"

	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
)

type addMasterKeyRequest struct {
	Type models.MasterKeyType `json:"type"`
	Name string               `json:"name"`
	URL  string               `json:"url"`
	Key  string               `json:"key"`
}

func (h *Handler) HandleAddMasterKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addMasterKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	view, err := h.Service.AddMasterKey(r.Context(), p.user, req.Type, req.Name, req.URL, req.Key)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, view)
}

func (h *Handler) HandleListMasterKeys(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	views, err := h.Service.ListMasterKeys(r.Context(), p.user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, views)
}

func (h *Handler) HandleGetMasterKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.Service.GetMasterKey(r.Context(), p.user, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, view)
}

type updateMasterKeyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleUpdateMasterKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateMasterKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Malformed("Request body should be JSON."))
		return
	}

	view, err := h.Service.UpdateMasterKey(r.Context(), p.user, r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sendResponse(w, view)
}

func (h *Handler) HandleDeleteMasterKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolveUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.DeleteMasterKey(r.Context(), p.user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
