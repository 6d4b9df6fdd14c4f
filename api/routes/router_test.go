package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/internal/payments"
	pkgAuth "github.com/angelmondragon/harvestlink-backend/pkg/auth"
	"github.com/angelmondragon/harvestlink-backend/pkg/config"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubOrders struct {
	orders.Service
	buyerCalls int
}

func (s *stubOrders) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params orders.ListParams) (*orders.ListResult, error) {
	s.buyerCalls++
	return &orders.ListResult{Orders: []models.Order{}}, nil
}

type stubPayments struct {
	payments.Service
	settled []uuid.UUID
}

func (s *stubPayments) Settle(ctx context.Context, actor payments.Actor, transactionID uuid.UUID) (*models.Transaction, error) {
	s.settled = append(s.settled, transactionID)
	return &models.Transaction{ID: transactionID, Status: enums.TransactionStatusSettled}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "harvestlink-test", ExpirationMinutes: 5},
		HTTP: config.HTTPConfig{
			CORSOrigins:     []string{"http://localhost:3000"},
			WriteRateLimit:  60,
			WriteRateWindow: time.Minute,
		},
		Idempotency:   config.IdempotencyConfig{TTL: time.Hour, CriticalTTL: 2 * time.Hour},
		Notifications: config.NotificationsConfig{InboxLimit: 50},
	}
}

func testRouter(t *testing.T, deps Dependencies) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testRouterConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(cfg, logg, deps), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutesArePublic(t *testing.T) {
	router, _ := testRouter(t, Dependencies{DB: stubPinger{}})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestReadinessFailsWhenDatabaseIsDown(t *testing.T) {
	router, _ := testRouter(t, Dependencies{DB: stubPinger{err: errors.New("connection refused")}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, _ := testRouter(t, Dependencies{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrdersRouteReachesService(t *testing.T) {
	svc := &stubOrders{}
	router, cfg := testRouter(t, Dependencies{Orders: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/buying?limit=10", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.buyerCalls != 1 {
		t.Fatalf("expected one service call, got %d", svc.buyerCalls)
	}
}

func TestSettleIsRestrictedToOperators(t *testing.T) {
	svc := &stubPayments{}
	router, cfg := testRouter(t, Dependencies{Payments: svc})
	txnID := uuid.New()

	cases := map[enums.ActorRole]int{
		enums.ActorRoleBuyer:  http.StatusForbidden,
		enums.ActorRoleSeller: http.StatusForbidden,
		enums.ActorRoleAdmin:  http.StatusOK,
		enums.ActorRoleSystem: http.StatusOK,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/settle", strings.NewReader(`{}`))
		req.Header.Set("Authorization", bearer(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("%s: expected %d got %d: %s", role, want, resp.Code, resp.Body.String())
		}
	}
	if len(svc.settled) != 2 {
		t.Fatalf("expected two settlements, got %d", len(svc.settled))
	}
}

func TestNotificationStreamWithoutRedisIsUnavailable(t *testing.T) {
	router, cfg := testRouter(t, Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleBuyer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)
	router, _ := testRouter(t, Dependencies{
		HTTPMetrics: httpMetrics,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "/health/live") {
		t.Fatalf("expected recorded route in metrics output")
	}
}
