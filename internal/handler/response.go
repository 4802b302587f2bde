package handler

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
	"sftp-gateway/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrInvalidPIN) {
		status = http.StatusForbidden
		body.Code = "INVALID_PIN"
		body.Message = "Invalid PIN"
	} else if errors.Is(err, model.ErrSessionInvalid) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "PIN required"
	} else if errors.Is(err, model.ErrFileNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "File not found"
	} else if errors.Is(err, model.ErrDirectoryNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Directory not found"
	} else if errors.Is(err, model.ErrNotAFile) {
		status = http.StatusBadRequest
		body.Code = "NOT_A_FILE"
		body.Message = "Path is a directory"
	} else if errors.Is(err, model.ErrPathConflict) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Path already exists"
	} else if errors.Is(err, model.ErrPreferenceNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Preference not found"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else if errors.Is(err, remote.ErrConnection) {
		status = http.StatusBadGateway
		body.Code = "REMOTE_UNAVAILABLE"
		body.Message = "Remote file server is unavailable"
		slog.Error("remote connection failed", "error", err)
	} else if errors.Is(err, fs.ErrPermission) {
		status = http.StatusForbidden
		body.Code = "PERMISSION_DENIED"
		body.Message = "Permission denied on the remote server"
		body.Details = err.Error()
	} else if errors.Is(err, fs.ErrNotExist) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Path not found"
	} else if errors.Is(err, fs.ErrExist) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "Path already exists"
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Message: body.Message,
		Error:   body,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}

	return nil
}

// NotFound answers unknown API routes with the JSON envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, apierror.NotFound("route not found", r.Method+" "+r.URL.Path))
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
