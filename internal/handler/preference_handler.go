package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/service"
	"sftp-gateway/pkg/apierror"
)

type PreferenceHandler struct {
	service *service.PreferenceService
}

func NewPreferenceHandler(service *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, prefs, nil)
}

func (h *PreferenceHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, apierror.BadRequest("could not read body", ""))
		return
	}

	stored, err := h.service.SetFavorite(r.Context(), chi.URLParam(r, "id"), json.RawMessage(raw))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stored, nil)
}

func (h *PreferenceHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFavorite(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, nil)
}

func (h *PreferenceHandler) SetRename(w http.ResponseWriter, r *http.Request) {
	var payload model.RenameRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	name, err := h.service.SetRename(r.Context(), chi.URLParam(r, "id"), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.RenameRequest{Name: name}, nil)
}

func (h *PreferenceHandler) DeleteRename(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRename(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, nil)
}
