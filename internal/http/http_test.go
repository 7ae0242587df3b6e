package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/cardledger/internal/auth/domain"
	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardHTTP "github.com/allisson/cardledger/internal/card/http"
	"github.com/allisson/cardledger/internal/card/usecase/mocks"
	"github.com/allisson/cardledger/internal/config"
	"github.com/allisson/cardledger/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// staticTokens maps bearer tokens to principals.
type staticTokens map[string]*authDomain.Principal

func (s staticTokens) ParseToken(token string) (*authDomain.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, authDomain.ErrInvalidToken
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readinessOf(t *testing.T, server *Server) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, discardLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("NilDB", func(t *testing.T) {
		code, body := readinessOf(t, NewServer(nil, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"database": "error"}, body["components"])
	})

	t.Run("DatabaseUp", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing()

		code, body := readinessOf(t, NewServer(db, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing().WillReturnError(assert.AnError)

		code, body := readinessOf(t, NewServer(db, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body["status"])
	})
}

func TestCustomLoggerMiddleware_ServerError(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("ledger exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic?x=1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// newFullServer wires SetupRouter with a mocked card use case.
func newFullServer(t *testing.T, cfg *config.Config, provider *metrics.Provider) (*Server, *mocks.MockCardUseCase) {
	t.Helper()

	useCase := &mocks.MockCardUseCase{}
	t.Cleanup(func() { useCase.AssertExpectations(t) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := staticTokens{
		"admin-token": {UserID: 1, Role: authDomain.RoleAdmin},
		"user-token":  {UserID: 2, Role: authDomain.RoleUser},
	}

	server := NewServer(nil, "localhost", 0, discardLogger())
	server.SetupRouter(ctx, cfg, tokens, cardHTTP.NewCardHandler(useCase, 100, discardLogger()), provider)
	return server, useCase
}

func serve(server *Server, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	server.router.ServeHTTP(w, req)
	return w
}

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{RateLimitEnabled: true, RateLimitRequestsPerSec: 100, RateLimitBurst: 100}

	t.Run("HealthIsPublicAndCarriesRequestID", func(t *testing.T) {
		server, _ := newFullServer(t, cfg, nil)

		w := serve(server, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		_, err := uuid.Parse(w.Header().Get("X-Request-Id"))
		assert.NoError(t, err)
	})

	t.Run("CardsRequireToken", func(t *testing.T) {
		server, _ := newFullServer(t, cfg, nil)

		assert.Equal(t, http.StatusUnauthorized, serve(server, http.MethodGet, "/v1/cards/my", "").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(server, http.MethodGet, "/v1/cards/my", "forged").Code)
	})

	t.Run("UserRoutes", func(t *testing.T) {
		server, useCase := newFullServer(t, cfg, nil)
		useCase.On("ListOwnerCardsPaged", mock.Anything, int64(2), "", 0, 10).
			Return(&cardDomain.Page{Size: 10}, nil).Once()

		w := serve(server, http.MethodGet, "/v1/cards/my", "user-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.StatusForbidden, serve(server, http.MethodGet, "/v1/cards/admin/all", "user-token").Code)
	})

	t.Run("AdminRoutes", func(t *testing.T) {
		server, useCase := newFullServer(t, cfg, nil)
		useCase.On("ListAllCards", mock.Anything).Return([]*cardDomain.Card{}, nil).Once()

		w := serve(server, http.MethodGet, "/v1/cards/admin/all", "admin-token")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NoMetricsOnAPIPort", func(t *testing.T) {
		provider, err := metrics.NewProvider("router_test")
		require.NoError(t, err)
		defer func() { assert.NoError(t, provider.Shutdown(context.Background())) }()

		server, _ := newFullServer(t, cfg, provider)

		assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/metrics", "").Code)
	})
}

func TestServer_StartRequiresRouter(t *testing.T) {
	server := NewServer(nil, "localhost", 0, discardLogger())
	assert.Error(t, server.Start(context.Background()))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "127.0.0.1", 0, discardLogger())
	server.router = gin.New()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))
	assert.NoError(t, <-errChan)
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("metrics_server_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsServer_DisabledProvider(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
