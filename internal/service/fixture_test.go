package service_test

import (
	"context"
	"sync"
	"testing"

	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/events"
	"teranga/internal/model"
	"teranga/internal/service"
	"teranga/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Recorders ─────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingAlerts struct {
	mu       sync.Mutex
	payloads []worker.LowStockAlertPayload
}

func (a *recordingAlerts) EnqueueLowStockAlert(_ context.Context, p worker.LowStockAlertPayload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads = append(a.payloads, p)
	return nil
}

func (a *recordingAlerts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.payloads)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

var (
	admin   = authz.Actor{UserID: uuid.New(), Username: "awa", Name: "Awa Ndiaye", Role: authz.RoleAdmin}
	manager = authz.Actor{UserID: uuid.New(), Username: "moussa", Name: "Moussa Fall", Role: authz.RoleManager}
	cashier = authz.Actor{UserID: uuid.New(), Username: "fatou", Name: "Fatou Sow", Role: authz.RoleCashier}
	server  = authz.Actor{UserID: uuid.New(), Username: "ibrahima", Name: "Ibrahima Diop", Role: authz.RoleServer}
	kitchen = authz.Actor{UserID: uuid.New(), Username: "aminata", Name: "Aminata Ba", Role: authz.RoleKitchen}
)

type fixture struct {
	store     *memStore
	publisher *recordingPublisher
	alerts    *recordingAlerts

	tables service.TableService
	menu   service.MenuService
	stock  service.StockService
	orders service.OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	f := &fixture{store: s, publisher: &recordingPublisher{}, alerts: &recordingAlerts{}}

	tableRepo := &stubTableRepo{s: s}
	sessionRepo := &stubSessionRepo{s: s}
	menuRepo := &stubMenuRepo{s: s}
	ingredientRepo := &stubIngredientRepo{s: s}

	f.tables = service.NewTableService(tableRepo, sessionRepo, "https://teranga.test/")
	f.menu = service.NewMenuService(s, menuRepo, ingredientRepo, nil)
	f.stock = service.NewStockService(s, ingredientRepo, &stubMovementRepo{s: s}, &stubRequestRepo{s: s}, menuRepo, f.alerts)
	f.orders = service.NewOrderService(s, &stubOrderRepo{s: s}, menuRepo, tableRepo, sessionRepo, f.stock, f.publisher)
	return f
}

func (f *fixture) table(t *testing.T, label string) *dto.TableResponse {
	t.Helper()
	tbl, err := f.tables.CreateTable(context.Background(), manager, dto.CreateTableRequest{Label: label, Seats: 4})
	require.NoError(t, err)
	return tbl
}

func (f *fixture) ingredient(t *testing.T, name string, qty, threshold string) uuid.UUID {
	t.Helper()
	ing, err := f.stock.CreateIngredient(context.Background(), manager, dto.CreateIngredientRequest{
		Name:             name,
		Unit:             "kg",
		InitialQuantity:  decimal.RequireFromString(qty),
		ReorderThreshold: decimal.RequireFromString(threshold),
	})
	require.NoError(t, err)
	return uuid.MustParse(ing.ID)
}

// dish creates a menu item whose recipe consumes the given ingredient amounts.
func (f *fixture) dish(t *testing.T, name, price string, recipe map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	item, err := f.menu.CreateItem(ctx, manager, dto.CreateMenuItemRequest{Name: name, Price: decimal.RequireFromString(price)})
	require.NoError(t, err)
	id := uuid.MustParse(item.ID)
	if len(recipe) > 0 {
		lines := make([]dto.RecipeLineRequest, 0, len(recipe))
		for ingID, qty := range recipe {
			lines = append(lines, dto.RecipeLineRequest{IngredientID: ingID.String(), Quantity: decimal.RequireFromString(qty)})
		}
		_, err = f.menu.SetRecipe(ctx, manager, id, dto.SetRecipeRequest{Lines: lines})
		require.NoError(t, err)
	}
	return id
}

func (f *fixture) order(t *testing.T, items ...dto.OrderItemRequest) *dto.OrderResponse {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), server, dto.CreateOrderRequest{Channel: model.ChannelTakeaway, Items: items})
	require.NoError(t, err)
	return o
}

func line(menuItemID uuid.UUID, qty int) dto.OrderItemRequest {
	return dto.OrderItemRequest{MenuItemID: menuItemID.String(), Quantity: qty}
}

func (f *fixture) quantity(t *testing.T, ingredientID uuid.UUID) decimal.Decimal {
	t.Helper()
	ing, err := f.stock.GetIngredient(context.Background(), manager, ingredientID)
	require.NoError(t, err)
	return ing.Quantity
}

func (f *fixture) advance(t *testing.T, orderID string, actor authz.Actor, statuses ...model.OrderStatus) {
	t.Helper()
	for _, st := range statuses {
		_, err := f.orders.UpdateOrderStatus(context.Background(), actor, uuid.MustParse(orderID), string(st))
		require.NoError(t, err, "moving to %s", st)
	}
}

func (f *fixture) reconciles(t *testing.T, ingredientIDs ...uuid.UUID) {
	t.Helper()
	for _, id := range ingredientIDs {
		rec, err := f.stock.Reconcile(context.Background(), manager, id)
		require.NoError(t, err)
		require.True(t, rec.Consistent, "ingredient %s: quantity %s initial %s movements %s",
			id, rec.Quantity, rec.InitialQuantity, rec.MovementSum)
	}
}
