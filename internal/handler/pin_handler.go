package handler

import (
	"net/http"
	"time"

	"sftp-gateway/internal/metrics"
	"sftp-gateway/internal/middleware"
	"sftp-gateway/internal/model"
	"sftp-gateway/internal/service"
)

type PINHandler struct {
	service      *service.GateService
	secureCookie bool
}

func NewPINHandler(service *service.GateService, secureCookie bool) *PINHandler {
	return &PINHandler{service: service, secureCookie: secureCookie}
}

func (h *PINHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload model.VerifyPINRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	token, expiresAt, err := h.service.VerifyPIN(payload.PIN)
	metrics.RecordPINAttempt(err == nil)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(h.service.TTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeSuccess(w, http.StatusOK, nil, nil)
}

func (h *PINHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeSuccess(w, http.StatusOK, nil, nil)
}
