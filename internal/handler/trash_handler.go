package handler

import (
	"net/http"
	"strings"

	"sftp-gateway/internal/service"
	"sftp-gateway/pkg/apierror"
)

type TrashHandler struct {
	service *service.TrashService
}

func NewTrashHandler(service *service.TrashService) *TrashHandler {
	return &TrashHandler{service: service}
}

// Delete moves the entry at ?path= into the recycle bin.
func (h *TrashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.BadRequest("path is required", "path"))
		return
	}

	record, err := h.service.SoftDelete(r.Context(), requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, nil)
}
