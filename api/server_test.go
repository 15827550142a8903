package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func corsRouter(t *testing.T, origins []string) http.Handler {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := quietLogger()
	svc := vacation.NewService(st, st, vacation.WithLogger(logger))
	return api.NewRouter(api.NewHandler(svc, st, logger), api.Options{
		AllowedOrigins: origins,
		Logger:         logger,
	})
}

func preflight(t *testing.T, h http.Handler, origin string) http.Header {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, "/api/periods", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Header()
}

func TestCORS_WildcardWithoutCredentials(t *testing.T) {
	// GIVEN: the default wildcard origin list
	h := corsRouter(t, nil)

	// WHEN: a browser sends a preflight
	got := preflight(t, h, "https://portal.example.edu")

	// THEN: any origin is allowed but credentials are not
	assert.Equal(t, "*", got.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, got.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ExplicitOriginsAllowCredentials(t *testing.T) {
	h := corsRouter(t, []string{"https://portal.example.edu"})

	got := preflight(t, h, "https://portal.example.edu")

	assert.Equal(t, "https://portal.example.edu", got.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", got.Get("Access-Control-Allow-Credentials"))

	other := preflight(t, h, "https://elsewhere.example.com")
	assert.Empty(t, other.Get("Access-Control-Allow-Origin"))
}
