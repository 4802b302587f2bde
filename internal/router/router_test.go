package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sftp-gateway/internal/config"
	"sftp-gateway/internal/handler"
	"sftp-gateway/internal/middleware"
	"sftp-gateway/internal/remote"
	"sftp-gateway/internal/repository"
	"sftp-gateway/internal/retention"
	"sftp-gateway/internal/service"
)

const testPIN = "2468"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func newTestServer(t *testing.T, store *memoryRemote) *httptest.Server {
	t.Helper()

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>gateway</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644))

	prefs, err := repository.OpenPreferenceFile(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	paths, err := remote.NewPathValidator("/web")
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:      10 * time.Second,
		DownloadTimeout:     time.Minute,
		DownloadIdleTimeout: 10 * time.Second,
		RateLimitRPM:        0,
		PINRateLimitRPM:     1000,
	}

	gateService := service.NewGateService(testPIN, "test-secret", time.Hour)
	static := handler.NewStaticHandler(staticDir)
	gate := middleware.NewPINGate(gateService, http.HandlerFunc(static.Index), GateExemptPaths()...)

	server := httptest.NewServer(New(cfg, gate, Handlers{
		PIN:         handler.NewPINHandler(gateService, false),
		Directory:   handler.NewDirectoryHandler(service.NewDirectoryService(store, paths)),
		File:        handler.NewFileHandler(service.NewFileService(store, paths)),
		Trash:       handler.NewTrashHandler(service.NewTrashService(store, paths, "/web/RecycleBin", retention.DefaultPolicy())),
		Preferences: handler.NewPreferenceHandler(service.NewPreferenceService(prefs)),
		Static:      static,
	}))
	t.Cleanup(server.Close)

	return server
}

func login(t *testing.T, server *httptest.Server) *http.Cookie {
	t.Helper()

	resp, err := http.Post(server.URL+"/verify-pin", "application/json", strings.NewReader(`{"pin":"`+testPIN+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			require.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func do(t *testing.T, method string, url string, body string, cookie *http.Cookie) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	server := newTestServer(t, newMemoryRemote())

	resp, raw := do(t, http.MethodGet, server.URL+"/health", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(raw))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMetricsStayOffThePublicListener(t *testing.T) {
	server := newTestServer(t, newMemoryRemote())

	resp, raw := do(t, http.MethodGet, server.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, string(raw), "gateway_")
	require.Contains(t, string(raw), "<html>gateway</html>")

	metricsServer := httptest.NewServer(NewMetrics())
	t.Cleanup(metricsServer.Close)

	resp, raw = do(t, http.MethodGet, metricsServer.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), "gateway_")
}

func TestPINGateFlow(t *testing.T) {
	server := newTestServer(t, newMemoryRemote())

	t.Run("api requires a session", func(t *testing.T) {
		resp, raw := do(t, http.MethodGet, server.URL+"/api/files", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.False(t, decode(t, raw).Success)
	})

	t.Run("pages fall back to the front end", func(t *testing.T) {
		resp, raw := do(t, http.MethodGet, server.URL+"/photos/2024", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(raw), "gateway")
	})

	t.Run("wrong pin", func(t *testing.T) {
		resp, raw := do(t, http.MethodPost, server.URL+"/verify-pin", `{"pin":"0000"}`, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		env := decode(t, raw)
		require.False(t, env.Success)
		require.Equal(t, "Invalid PIN", env.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, server.URL+"/verify-pin", `{"pin":`, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("correct pin opens the api", func(t *testing.T) {
		cookie := login(t, server)

		resp, raw := do(t, http.MethodGet, server.URL+"/api/preferences", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, decode(t, raw).Success)

		resp, raw = do(t, http.MethodGet, server.URL+"/app.js", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "console.log(1)", string(raw))
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		cookie := login(t, server)

		resp, _ := do(t, http.MethodPost, server.URL+"/logout", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var cleared *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == middleware.SessionCookieName {
				cleared = c
			}
		}
		require.NotNil(t, cleared)
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)
	})
}

func TestRemoteFileRoutes(t *testing.T) {
	store := newMemoryRemote()
	modified := time.Now().Add(-time.Hour)
	store.addFile("/web/docs/readme.txt", "hello gateway", modified)
	store.addFile("/web/docs/notes.md", "# notes", modified)
	store.addFile("/etc/passwd", "root", modified)

	server := newTestServer(t, store)
	cookie := login(t, server)

	t.Run("list", func(t *testing.T) {
		resp, raw := do(t, http.MethodGet, server.URL+"/api/files?path=/docs&sort=name", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env := decode(t, raw)
		require.Equal(t, 2, env.Meta.Total)
		var data struct {
			CurrentPath string `json:"current_path"`
			Items       []struct {
				Name string `json:"name"`
				Path string `json:"path"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Equal(t, "/docs", data.CurrentPath)
		require.Equal(t, "notes.md", data.Items[0].Name)
		require.Equal(t, "/docs/readme.txt", data.Items[1].Path)
	})

	t.Run("traversal is refused", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, server.URL+"/api/files/download?path=/../etc/passwd", "", cookie)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("download", func(t *testing.T) {
		resp, raw := do(t, http.MethodGet, server.URL+"/api/files/download?path=/docs/readme.txt", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "hello gateway", string(raw))
		require.Contains(t, resp.Header.Get("Content-Disposition"), `filename=readme.txt`)
	})

	t.Run("download of a missing file", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, server.URL+"/api/files/download?path=/docs/nope.txt", "", cookie)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete moves into the recycle bin", func(t *testing.T) {
		resp, raw := do(t, http.MethodDelete, server.URL+"/api/files?path=/docs/readme.txt", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		require.False(t, store.exists("/web/docs/readme.txt"))

		var record struct {
			RecyclePath string `json:"recycle_path"`
		}
		require.NoError(t, json.Unmarshal(decode(t, raw).Data, &record))
		require.True(t, store.exists(record.RecyclePath))

		resp, raw = do(t, http.MethodGet, server.URL+"/api/recycle-bin", "", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []struct {
			Name    string  `json:"name"`
			AgeDays float64 `json:"age_days"`
			Expired bool    `json:"expired"`
		}
		require.NoError(t, json.Unmarshal(decode(t, raw).Data, &items))
		require.Len(t, items, 1)
		require.True(t, strings.HasSuffix(items[0].Name, "_readme.txt"))
		require.Less(t, items[0].AgeDays, 0.01)
		require.False(t, items[0].Expired)
	})

	t.Run("unknown api route", func(t *testing.T) {
		resp, raw := do(t, http.MethodGet, server.URL+"/api/nope", "", cookie)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "NOT_FOUND", decode(t, raw).Error.Code)
	})
}

func TestRemoteUnavailable(t *testing.T) {
	store := newMemoryRemote()
	store.down = true
	server := newTestServer(t, store)
	cookie := login(t, server)

	resp, raw := do(t, http.MethodGet, server.URL+"/api/files", "", cookie)

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "REMOTE_UNAVAILABLE", decode(t, raw).Error.Code)
}

func TestPreferenceRoutes(t *testing.T) {
	server := newTestServer(t, newMemoryRemote())
	cookie := login(t, server)

	resp, raw := do(t, http.MethodPut, server.URL+"/api/favorites/f1", `{"path":"/docs","label":"Docs"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"path":"/docs","label":"Docs"}`, string(decode(t, raw).Data))

	resp, _ = do(t, http.MethodPut, server.URL+"/api/renames/f1", `{"name":"Holiday"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, server.URL+"/api/renames/f1", `{"name":""}`, cookie)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = do(t, http.MethodGet, server.URL+"/api/preferences", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prefs struct {
		Favorites map[string]json.RawMessage `json:"favorites"`
		Renames   map[string]string          `json:"renames"`
	}
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &prefs))
	require.Contains(t, prefs.Favorites, "f1")
	require.Equal(t, "Holiday", prefs.Renames["f1"])

	resp, _ = do(t, http.MethodDelete, server.URL+"/api/favorites/f1", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, server.URL+"/api/favorites/f1", "", cookie)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
