package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"sftp-gateway/internal/service"
	"sftp-gateway/pkg/apierror"
)

type FileHandler struct {
	service *service.FileService
}

func NewFileHandler(service *service.FileService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" || requestedPath == "/" {
		writeError(w, apierror.BadRequest("path is required", "path"))
		return
	}

	file, err := h.service.Open(r.Context(), requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("close remote download", "path", requestedPath, "error", err)
		}
	}()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	http.ServeContent(w, r, file.Name, file.ModifiedAt, file)
}
