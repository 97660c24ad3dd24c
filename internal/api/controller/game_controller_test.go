package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bassista/go_ratebadge/internal/cache"
)

type mockGames struct {
	name    string
	summary string
	err     error
	lastID  string
}

func (m *mockGames) GetGameName(_ context.Context, appID string) (string, error) {
	m.lastID = appID
	return m.name, m.err
}

func (m *mockGames) GetAppSummary(_ context.Context, appID string) (string, error) {
	m.lastID = appID
	return m.summary, m.err
}

func newGameRouter(games *mockGames) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gc := NewGameController(games)
	r := gin.New()
	r.GET("/games/:appid/name", gc.GetName)
	r.GET("/games/:appid/summary", gc.GetSummary)
	return r
}

func TestGameController_GetName(t *testing.T) {
	games := &mockGames{name: "Team Fortress 2"}
	r := newGameRouter(games)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games/440/name", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Team Fortress 2"}`, w.Body.String())
	assert.Equal(t, "440", games.lastID)
}

func TestGameController_GetSummary(t *testing.T) {
	r := newGameRouter(&mockGames{summary: `{"tier":"gold","cacheDate":1710496800}`})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games/440/summary", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"tier":"gold","cacheDate":1710496800}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestGameController_GetSummary_Empty(t *testing.T) {
	r := newGameRouter(&mockGames{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games/1/summary", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestGameController_Errors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"invalid id", fmt.Errorf("%w: bad", cache.ErrInvalidKey), http.StatusBadRequest},
		{"timeout", fmt.Errorf("GET: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream", errors.New("connection reset"), http.StatusBadGateway},
		{"corrupt cache", fmt.Errorf("%w: 440_summary", cache.ErrCorrupt), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newGameRouter(&mockGames{err: tt.err})
			for _, path := range []string{"/games/440/name", "/games/440/summary"} {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				if w.Code != tt.expectedStatus {
					t.Errorf("%s: expected status %d, got %d", path, tt.expectedStatus, w.Code)
				}
			}
		})
	}
}
