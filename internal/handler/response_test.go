package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
	"sftp-gateway/pkg/apierror"
)

func TestWriteErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", apierror.New("PATH_TRAVERSAL", "nope", "", http.StatusForbidden), http.StatusForbidden, "PATH_TRAVERSAL"},
		{"invalid pin", model.ErrInvalidPIN, http.StatusForbidden, "INVALID_PIN"},
		{"missing preference", model.ErrPreferenceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"directory download", model.ErrNotAFile, http.StatusBadRequest, "NOT_A_FILE"},
		{"remote down", fmt.Errorf("%w: refused", remote.ErrConnection), http.StatusBadGateway, "REMOTE_UNAVAILABLE"},
		{"remote permission", fmt.Errorf("%w: %w", remote.ErrOperation, fs.ErrPermission), http.StatusForbidden, "PERMISSION_DENIED"},
		{"remote missing", fmt.Errorf("%w: %w", remote.ErrOperation, fs.ErrNotExist), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			writeError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body model.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.wantCode, body.Error.Code)
			assert.Equal(t, body.Error.Message, body.Message)
		})
	}
}

func TestWriteSuccessWithoutData(t *testing.T) {
	rec := httptest.NewRecorder()

	writeSuccess(rec, http.StatusOK, nil, nil)

	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}
