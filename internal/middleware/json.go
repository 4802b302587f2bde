package middleware

import (
	"encoding/json"
	"net/http"

	"sftp-gateway/internal/model"
)

// writeJSONError writes the same envelope the handlers use, for responses
// produced before a request reaches them.
func writeJSONError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Message: message,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
