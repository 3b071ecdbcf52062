package service_test

import (
	"context"
	"testing"

	"teranga/internal/apierror"
	"teranga/internal/dto"
	"teranga/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjust(delta, reason string) dto.AdjustStockRequest {
	return dto.AdjustStockRequest{Delta: decimal.RequireFromString(delta), Reason: reason}
}

func TestCreateIngredient_OpeningBalanceIsNotAMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Huile", "20", "5")

	ing, err := f.stock.GetIngredient(ctx, kitchen, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(ing.Quantity))
	assert.True(t, decimal.NewFromInt(20).Equal(ing.InitialQuantity))
	assert.False(t, ing.Low)

	movements, err := f.stock.ListMovements(ctx, manager, dto.MovementFilter{IngredientID: id.String()})
	require.NoError(t, err)
	assert.Empty(t, movements.Data)
	f.reconciles(t, id)

	_, err = f.stock.CreateIngredient(ctx, server, dto.CreateIngredientRequest{Name: "Sel", Unit: "kg"})
	assert.ErrorIs(t, err, apierror.ErrPermissionDenied)
	_, err = f.stock.CreateIngredient(ctx, manager, dto.CreateIngredientRequest{Name: "Sel", Unit: "kg", InitialQuantity: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Tomate", "4", "1")

	m, err := f.stock.AdjustStock(ctx, manager, id, adjust("6", model.ReasonAdjustment))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(m.QuantityBefore))
	assert.True(t, decimal.NewFromInt(10).Equal(m.QuantityAfter))
	assert.Equal(t, manager.Username, m.Actor)

	_, err = f.stock.AdjustStock(ctx, manager, id, adjust("-2.5", model.ReasonAdjustment))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7.5").Equal(f.quantity(t, id)))
	f.reconciles(t, id)
}

func TestAdjustStock_NeverGoesNegativeWithoutForce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Gombo", "1", "0")

	_, err := f.stock.AdjustStock(ctx, manager, id, adjust("-1.5", model.ReasonAdjustment))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.True(t, decimal.NewFromInt(1).Equal(f.quantity(t, id)))

	_, err = f.stock.AdjustStock(ctx, manager, id, adjust("-1.5", model.ReasonForce))
	assert.ErrorIs(t, err, apierror.ErrPermissionDenied)

	m, err := f.stock.AdjustStock(ctx, admin, id, adjust("-1.5", model.ReasonForce))
	require.NoError(t, err)
	assert.Equal(t, model.ReasonForce, m.Reason)
	assert.True(t, decimal.RequireFromString("-0.5").Equal(f.quantity(t, id)))
	f.reconciles(t, id)
}

func TestAdjustStock_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Citron", "3", "0")

	_, err := f.stock.AdjustStock(ctx, manager, id, adjust("0", model.ReasonAdjustment))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.stock.AdjustStock(ctx, manager, id, adjust("1", model.ReasonSale))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.stock.AdjustStock(ctx, manager, uuid.New(), adjust("1", model.ReasonAdjustment))
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	_, err = f.stock.AdjustStock(ctx, kitchen, id, adjust("1", model.ReasonAdjustment))
	assert.ErrorIs(t, err, apierror.ErrPermissionDenied)
}

func TestAdjustStock_RejectsFinerThanColumnScale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Poivre", "0.002", "0")

	_, err := f.stock.AdjustStock(ctx, manager, id, adjust("-0.0015", model.ReasonAdjustment))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.stock.AdjustStock(ctx, admin, id, adjust("0.0001", model.ReasonForce))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.True(t, f.quantity(t, id).Equal(decimal.RequireFromString("0.002")))

	// Trailing zeros are not extra precision.
	mv, err := f.stock.AdjustStock(ctx, manager, id, adjust("-0.0010", model.ReasonAdjustment))
	require.NoError(t, err)
	assert.True(t, mv.QuantityBefore.Equal(decimal.RequireFromString("0.002")))
	assert.True(t, mv.QuantityAfter.Equal(decimal.RequireFromString("0.001")))
	f.reconciles(t, id)

	_, err = f.stock.CreateIngredient(ctx, manager, dto.CreateIngredientRequest{
		Name: "Safran", Unit: "g", InitialQuantity: decimal.RequireFromString("1.2345"),
	})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.stock.CreateRequest(ctx, server, dto.CreateIngredientRequestRequest{
		IngredientID: id.String(), Quantity: decimal.RequireFromString("0.0005"),
	})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	item, err := f.menu.CreateItem(ctx, manager, dto.CreateMenuItemRequest{Name: "Yassa", Price: decimal.RequireFromString("3000")})
	require.NoError(t, err)
	_, err = f.menu.SetRecipe(ctx, manager, uuid.MustParse(item.ID), dto.SetRecipeRequest{Lines: []dto.RecipeLineRequest{
		{IngredientID: id.String(), Quantity: decimal.RequireFromString("0.0001")},
	}})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestAdjustStock_LowStockAlertAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Piment", "3", "1")
	f.ingredient(t, "Ail", "10", "1")

	_, err := f.stock.AdjustStock(ctx, manager, id, adjust("-2", model.ReasonAdjustment))
	require.NoError(t, err)
	require.Equal(t, 1, f.alerts.count())
	assert.Equal(t, "Piment", f.alerts.payloads[0].Items[0].Name)

	low, err := f.stock.LowStock(ctx, server)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, id.String(), low[0].ID)
	assert.True(t, low[0].Low)

	// Restocking never raises an alert.
	_, err = f.stock.AdjustStock(ctx, manager, id, adjust("5", model.ReasonAdjustment))
	require.NoError(t, err)
	assert.Equal(t, 1, f.alerts.count())
}

func TestReconcile_DetectsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ingredient(t, "Mil", "8", "0")
	_, err := f.stock.AdjustStock(ctx, manager, id, adjust("-3", model.ReasonAdjustment))
	require.NoError(t, err)
	f.reconciles(t, id)

	// Simulate a write that bypassed the ledger.
	f.store.mu.Lock()
	ing := f.store.ingredients[id]
	ing.Quantity = ing.Quantity.Add(decimal.NewFromInt(1))
	f.store.ingredients[id] = ing
	f.store.mu.Unlock()

	rec, err := f.stock.Reconcile(ctx, manager, id)
	require.NoError(t, err)
	assert.False(t, rec.Consistent)
	assert.True(t, decimal.NewFromInt(-3).Equal(rec.MovementSum))
}

func TestReconcile_SumsOnlyThatIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oignon := f.ingredient(t, "Oignon", "5", "0")
	tomate := f.ingredient(t, "Tomate", "5", "0")
	_, err := f.stock.AdjustStock(ctx, manager, oignon, adjust("-1.5", model.ReasonAdjustment))
	require.NoError(t, err)
	_, err = f.stock.AdjustStock(ctx, manager, tomate, adjust("2", model.ReasonAdjustment))
	require.NoError(t, err)

	rec, err := f.stock.Reconcile(ctx, manager, oignon)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.True(t, decimal.RequireFromString("-1.5").Equal(rec.MovementSum))

	rec, err = f.stock.Reconcile(ctx, manager, f.ingredient(t, "Gombo", "1", "0"))
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.True(t, rec.MovementSum.IsZero())
}

func TestDecrementForOrder_Standalone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.ingredient(t, "Farine", "2", "0")
	dish := f.dish(t, "Beignets", "500", map[uuid.UUID]string{flour: "0.25"})
	order := &model.Order{ID: uuid.New(), Number: 42, Items: []model.OrderItem{{MenuItemID: dish, Quantity: 4}}}

	require.NoError(t, f.stock.DecrementForOrder(ctx, server, order))
	assert.True(t, decimal.NewFromInt(1).Equal(f.quantity(t, flour)))

	order.Items[0].Quantity = 5
	err := f.stock.DecrementForOrder(ctx, server, order)
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "#42")
	assert.True(t, decimal.NewFromInt(1).Equal(f.quantity(t, flour)))
	f.reconciles(t, flour)
}

// ── Ingredient requests ───────────────────────────────────────────────────────

func (f *fixture) request(t *testing.T, ingredientID uuid.UUID, qty string) uuid.UUID {
	t.Helper()
	r, err := f.stock.CreateRequest(context.Background(), kitchen, dto.CreateIngredientRequestRequest{
		IngredientID: ingredientID.String(),
		Quantity:     decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, r.Status)
	return uuid.MustParse(r.ID)
}

func TestIngredientRequest_ApproveThenFulfill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	onion := f.ingredient(t, "Oignon", "1", "2")
	id := f.request(t, onion, "5")

	_, err := f.stock.ApproveRequest(ctx, server, id)
	assert.ErrorIs(t, err, apierror.ErrPermissionDenied)

	approved, err := f.stock.ApproveRequest(ctx, manager, id)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, manager.Username, *approved.ReviewedBy)

	_, err = f.stock.ApproveRequest(ctx, manager, id)
	assert.ErrorIs(t, err, apierror.ErrInvalidTransition)

	fulfilled, err := f.stock.FulfillIngredientRequest(ctx, manager, id)
	require.NoError(t, err)
	assert.Equal(t, model.RequestFulfilled, fulfilled.Status)
	assert.NotNil(t, fulfilled.FulfilledAt)
	assert.True(t, decimal.NewFromInt(6).Equal(f.quantity(t, onion)))

	movements, err := f.stock.ListMovements(ctx, manager, dto.MovementFilter{Reason: model.ReasonRequestFulfillment})
	require.NoError(t, err)
	require.Len(t, movements.Data, 1)
	require.NotNil(t, movements.Data[0].ReferenceID)
	assert.Equal(t, id.String(), *movements.Data[0].ReferenceID)
	f.reconciles(t, onion)

	_, err = f.stock.FulfillIngredientRequest(ctx, manager, id)
	assert.ErrorIs(t, err, apierror.ErrInvalidTransition)
	assert.True(t, decimal.NewFromInt(6).Equal(f.quantity(t, onion)), "fulfilled twice")
}

func TestIngredientRequest_FulfillFromPending(t *testing.T) {
	f := newFixture(t)
	rice := f.ingredient(t, "Riz", "0", "0")
	id := f.request(t, rice, "25")

	_, err := f.stock.FulfillIngredientRequest(context.Background(), admin, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(f.quantity(t, rice)))
}

func TestIngredientRequest_RejectedCannotBeFulfilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Riz", "3", "0")
	id := f.request(t, rice, "25")

	rejected, err := f.stock.RejectRequest(ctx, manager, id)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rejected.Status)

	_, err = f.stock.FulfillIngredientRequest(ctx, manager, id)
	assert.ErrorIs(t, err, apierror.ErrInvalidTransition)
	assert.True(t, decimal.NewFromInt(3).Equal(f.quantity(t, rice)))

	movements, err := f.stock.ListMovements(ctx, manager, dto.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movements.Data)

	pending, err := f.stock.ListRequests(ctx, server, model.RequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIngredientRequest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.ingredient(t, "Riz", "3", "0")

	_, err := f.stock.CreateRequest(ctx, kitchen, dto.CreateIngredientRequestRequest{IngredientID: rice.String(), Quantity: decimal.Zero})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.stock.CreateRequest(ctx, kitchen, dto.CreateIngredientRequestRequest{IngredientID: uuid.NewString(), Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	_, err = f.stock.ApproveRequest(ctx, manager, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
