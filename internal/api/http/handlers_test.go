package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshell/runtime/internal/domain/modules"
	"github.com/microshell/runtime/internal/domain/registry"
	"github.com/microshell/runtime/internal/domain/runtime"
	"github.com/microshell/runtime/internal/domain/styling"
	"github.com/microshell/runtime/internal/infrastructure/httpx"
	"github.com/microshell/runtime/internal/infrastructure/logging"
	"github.com/microshell/runtime/internal/storage"
)

// newTestStack wires real collaborators against stub upstream servers.
func newTestStack(t *testing.T) (*gin.Engine, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/systems/"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"header": {"script": "` + scriptURL(r) + `", "stylesheet": "` + styleURL(r) + `"}
			}`))
		case strings.HasSuffix(r.URL.Path, ".js"):
			w.Header().Set("Content-Type", "application/javascript")
			w.Write([]byte(`runtime.register({ init: function() {}, mount: function() {} });`))
		case strings.HasSuffix(r.URL.Path, ".css"):
			w.Write([]byte(`body {}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	logger := logging.NewNop()
	registryClient := registry.NewClient(registry.Config{BaseURL: upstream.URL, Timeout: 5 * time.Second})
	assetClient := httpx.New(httpx.Options{Timeout: 5 * time.Second})
	styler := styling.NewInjector(assetClient, false)
	loader := modules.NewLoader(assetClient, time.Second, 0)

	store, err := storage.Open(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	orchestrator := runtime.New(registryClient, styler, loader, store, logger)

	router := gin.New()
	NewHandlers(orchestrator, registryClient, styler, logger).Register(router)
	return router, upstream
}

func scriptURL(r *http.Request) string {
	return "http://" + r.Host + "/assets/header.js"
}

func styleURL(r *http.Request) string {
	return "http://" + r.Host + "/assets/header.css"
}

func TestInitRuntimeEndToEnd(t *testing.T) {
	router, upstream := newTestStack(t)

	body := `{"system_code": "shop"}`
	req := httptest.NewRequest(http.MethodPost, "/runtime/init", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "session_id")
	assert.Contains(t, w.Body.String(), upstream.URL+"/assets/header.js")

	// Styling for the loaded component is now visible to the host page
	req = httptest.NewRequest(http.MethodGet, "/runtime/styles", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/assets/header.css")
}

func TestInitRuntimeMissingSystemCode(t *testing.T) {
	router, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/runtime/init", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "system code is required")
}

func TestInitRuntimeBadBody(t *testing.T) {
	router, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/runtime/init", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitRuntimeFetchFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	logger := logging.NewNop()
	registryClient := registry.NewClient(registry.Config{BaseURL: down.URL, Timeout: 2 * time.Second})
	assetClient := httpx.New(httpx.Options{Timeout: 2 * time.Second})
	styler := styling.NewInjector(assetClient, false)
	loader := modules.NewLoader(assetClient, time.Second, 0)
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	orchestrator := runtime.New(registryClient, styler, loader, store, logger)
	router := gin.New()
	NewHandlers(orchestrator, registryClient, styler, logger).Register(router)

	req := httptest.NewRequest(http.MethodPost, "/runtime/init", strings.NewReader(`{"system_code": "shop"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
