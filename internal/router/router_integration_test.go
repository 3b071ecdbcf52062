//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"teranga/internal/apierror"
	"teranga/internal/config"
	"teranga/internal/dto"
	"teranga/internal/events"
	"teranga/internal/infra"
	"teranga/internal/router"
	"teranga/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("teranga_test"),
		tcPostgres.WithUsername("teranga"),
		tcPostgres.WithPassword("teranga"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "integration-secret",
		JWTExpirationHours:  1,
		JWTRefreshHours:     2,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		PublicBaseURL:       "https://teranga.test",
		CORSAllowedOrigin:   "*",
		MenuCacheTTLMinutes: 1,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO users (id, username, name, password_hash, role, active, created_at, updated_at)
		VALUES (?, 'awa', 'Awa Ndiaye', ?, 'admin', true, now(), now())`, uuid.New(), string(hash)).Error)

	engine := router.New(cfg, db, rdb, events.NewRedisBus(rdb), worker.NewDispatcher(rdb))
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv}
	var login dto.LoginResponse
	status := env.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "awa", Password: "admin-password"}, &login)
	require.Equal(t, http.StatusOK, status)
	env.token = login.AccessToken
	return env
}

// do sends body as JSON and decodes the response into dest when non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body, dest any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

// doError sends body and returns the status with the error code of a non-2xx reply.
func (e *testEnv) doError(t *testing.T, method, path string, body any) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		return resp.StatusCode, ""
	}
	var apiErr apierror.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	return resp.StatusCode, apiErr.Code
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestDinnerService_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)

	// Back office: one ingredient, one dish that uses all of it, one table.
	var thiof dto.IngredientResponse
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/ingredients", dto.CreateIngredientRequest{
		Name: "Thiof", Unit: "kg", InitialQuantity: decimal.NewFromInt(1), ReorderThreshold: decimal.Zero,
	}, &thiof))

	var dish dto.MenuItemResponse
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/menu/items", dto.CreateMenuItemRequest{
		Name: "Thieboudienne", Price: decimal.NewFromInt(4500),
	}, &dish))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/v1/menu/items/"+dish.ID+"/recipe", dto.SetRecipeRequest{
		Lines: []dto.RecipeLineRequest{{IngredientID: thiof.ID, Quantity: decimal.NewFromInt(1)}},
	}, nil))

	var table dto.TableResponse
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/tables", dto.CreateTableRequest{Label: "T1"}, &table))

	// Concurrent QR scans converge on a single session.
	diner := &testEnv{server: env.server}
	const scans = 10
	ids := make([]string, scans)
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var resp dto.OpenSessionResponse
			status := diner.do(t, http.MethodPost, "/v1/public/tables/"+table.Token+"/session", nil, &resp)
			if status == http.StatusOK || status == http.StatusCreated {
				ids[i] = resp.Session.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.Equal(t, ids[0], id)
	}

	var session dto.OpenSessionResponse
	require.Equal(t, http.StatusOK, diner.do(t, http.MethodPost, "/v1/public/tables/"+table.Token+"/session", nil, &session))
	ordersPath := "/v1/public/sessions/" + session.Session.Token + "/orders"

	// Two diners order the last portion.
	place := dto.SessionOrderRequest{Items: []dto.OrderItemRequest{{MenuItemID: dish.ID, Quantity: 1}}}
	var first, second dto.OrderResponse
	require.Equal(t, http.StatusCreated, diner.do(t, http.MethodPost, ordersPath, place, &first))
	require.Equal(t, http.StatusCreated, diner.do(t, http.MethodPost, ordersPath, place, &second))
	assert.Equal(t, first.Number+1, second.Number)

	confirm := dto.UpdateOrderStatusRequest{Status: "confirmed"}
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPatch, "/v1/orders/"+first.ID+"/status", confirm, nil))
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPatch, "/v1/orders/"+second.ID+"/status", confirm, nil))

	var after dto.IngredientResponse
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/ingredients/"+thiof.ID, nil, &after))
	assert.True(t, after.Quantity.IsZero(), "stock is %s", after.Quantity)

	// Cancelling the confirmed order gives the portion back.
	cancel := dto.UpdateOrderStatusRequest{Status: "cancelled"}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPatch, "/v1/orders/"+first.ID+"/status", cancel, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/ingredients/"+thiof.ID, nil, &after))
	assert.True(t, after.Quantity.Equal(decimal.NewFromInt(1)), "stock is %s", after.Quantity)

	var rec dto.ReconcileResponse
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/ingredients/"+thiof.ID+"/reconcile", nil, &rec))
	assert.True(t, rec.Consistent)

	var history []dto.StatusLogResponse
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/orders/"+first.ID+"/history", nil, &history))
	require.Len(t, history, 3)
	assert.Nil(t, history[0].From)
	assert.Equal(t, "cancelled", history[2].To)

	// Closing the session retires its token; the next scan opens a new one.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/sessions/"+session.Session.ID+"/close", nil, nil))
	assert.Equal(t, http.StatusNotFound, diner.do(t, http.MethodPost, ordersPath, place, nil))

	var next dto.OpenSessionResponse
	require.Equal(t, http.StatusCreated, diner.do(t, http.MethodPost, "/v1/public/tables/"+table.Token+"/session", nil, &next))
	assert.NotEqual(t, session.Session.ID, next.Session.ID)
}

func TestConcurrentConfirms_ShareOneIngredient(t *testing.T) {
	env := setupTestEnv(t)

	// 7.5 kg feeds exactly five 1.5 kg portions; twelve orders compete.
	const orders, fits = 12, 5
	var poulet dto.IngredientResponse
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/ingredients", dto.CreateIngredientRequest{
		Name: "Poulet", Unit: "kg", InitialQuantity: decimal.RequireFromString("7.5"), ReorderThreshold: decimal.Zero,
	}, &poulet))

	var dish dto.MenuItemResponse
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/menu/items", dto.CreateMenuItemRequest{
		Name: "Yassa poulet", Price: decimal.NewFromInt(3500),
	}, &dish))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/v1/menu/items/"+dish.ID+"/recipe", dto.SetRecipeRequest{
		Lines: []dto.RecipeLineRequest{{IngredientID: poulet.ID, Quantity: decimal.RequireFromString("1.5")}},
	}, nil))

	ids := make([]string, orders)
	for i := range ids {
		var o dto.OrderResponse
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/orders", dto.CreateOrderRequest{
			Channel: "takeaway",
			Items:   []dto.OrderItemRequest{{MenuItemID: dish.ID, Quantity: 1}},
		}, &o))
		ids[i] = o.ID
	}

	var confirmed, short, other atomic.Int32
	confirm := dto.UpdateOrderStatusRequest{Status: "confirmed"}
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			status, code := env.doError(t, http.MethodPatch, "/v1/orders/"+id+"/status", confirm)
			switch {
			case status == http.StatusOK:
				confirmed.Add(1)
			case status == http.StatusConflict && code == string(apierror.KindInsufficientStock):
				short.Add(1)
			default:
				other.Add(1)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(fits), confirmed.Load())
	assert.Equal(t, int32(orders-fits), short.Load())
	assert.Zero(t, other.Load())

	var after dto.IngredientResponse
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/ingredients/"+poulet.ID, nil, &after))
	assert.True(t, after.Quantity.IsZero(), "stock is %s", after.Quantity)
	assert.False(t, after.Quantity.IsNegative())

	var rec dto.ReconcileResponse
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/ingredients/"+poulet.ID+"/reconcile", nil, &rec))
	assert.True(t, rec.Consistent)
	assert.True(t, decimal.RequireFromString("-7.5").Equal(rec.MovementSum), "movement sum %s", rec.MovementSum)
}

func TestStaffRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)
	anon := &testEnv{server: env.server}

	assert.Equal(t, http.StatusUnauthorized, anon.do(t, http.MethodGet, "/v1/orders", nil, nil))
	assert.Equal(t, http.StatusNotFound, anon.do(t, http.MethodPost, "/v1/public/tables/forged-token/session", nil, nil))
	assert.Equal(t, http.StatusOK, anon.do(t, http.MethodGet, "/v1/public/menu", nil, nil))
}
