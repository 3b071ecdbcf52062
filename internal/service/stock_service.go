package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"teranga/internal/apierror"
	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/metrics"
	"teranga/internal/model"
	"teranga/internal/repository"
	"teranga/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertQueue accepts low-stock alerts for asynchronous delivery.
type AlertQueue interface {
	EnqueueLowStockAlert(ctx context.Context, payload worker.LowStockAlertPayload) error
}

type StockService interface {
	CreateIngredient(ctx context.Context, actor authz.Actor, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error)
	UpdateIngredient(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateIngredientRequest) (*dto.IngredientResponse, error)
	GetIngredient(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientResponse, error)
	ListIngredients(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.IngredientResponse, error)
	LowStock(ctx context.Context, actor authz.Actor) ([]dto.IngredientResponse, error)

	// AdjustStock applies a manual delta. A result below zero is a
	// ValidationError unless the reason is "force".
	AdjustStock(ctx context.Context, actor authz.Actor, ingredientID uuid.UUID, req dto.AdjustStockRequest) (*dto.StockMovementResponse, error)
	// DecrementForOrder consumes the recipe ingredients of every order line
	// in its own transaction. Either every ingredient is decremented or none.
	DecrementForOrder(ctx context.Context, actor authz.Actor, order *model.Order) error
	// DecrementForOrderTx is DecrementForOrder inside the caller's transaction.
	DecrementForOrderTx(ctx context.Context, tx *gorm.DB, actor authz.Actor, order *model.Order) ([]model.StockMovement, error)
	// RestoreForOrderTx reverses the sale movements recorded for the order.
	RestoreForOrderTx(ctx context.Context, tx *gorm.DB, actor authz.Actor, order *model.Order) ([]model.StockMovement, error)

	ListMovements(ctx context.Context, actor authz.Actor, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	Reconcile(ctx context.Context, actor authz.Actor, ingredientID uuid.UUID) (*dto.ReconcileResponse, error)

	CreateRequest(ctx context.Context, actor authz.Actor, req dto.CreateIngredientRequestRequest) (*dto.IngredientRequestResponse, error)
	ListRequests(ctx context.Context, actor authz.Actor, status string) ([]dto.IngredientRequestResponse, error)
	ApproveRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error)
	RejectRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error)
	FulfillIngredientRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error)

	// NotifyLowStock queues an alert for the given ingredients that are at or
	// below their threshold. Called after commit; failures are only logged.
	NotifyLowStock(ctx context.Context, actor authz.Actor, ingredientIDs []uuid.UUID)
}

type stockService struct {
	tx          repository.Transactor
	ingredients repository.IngredientRepository
	movements   repository.StockMovementRepository
	requests    repository.IngredientRequestRepository
	menu        repository.MenuRepository
	alerts      AlertQueue
	now         func() time.Time
}

func NewStockService(
	tx repository.Transactor,
	ingredients repository.IngredientRepository,
	movements repository.StockMovementRepository,
	requests repository.IngredientRequestRepository,
	menu repository.MenuRepository,
	alerts AlertQueue,
) StockService {
	return &stockService{
		tx:          tx,
		ingredients: ingredients,
		movements:   movements,
		requests:    requests,
		menu:        menu,
		alerts:      alerts,
		now:         time.Now,
	}
}

// ── Ingredients ──────────────────────────────────────────────────────────────

func (s *stockService) CreateIngredient(ctx context.Context, actor authz.Actor, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error) {
	if err := authz.Require(actor, authz.PermIngredientManage); err != nil {
		return nil, err
	}
	if req.InitialQuantity.IsNegative() || req.ReorderThreshold.IsNegative() {
		return nil, apierror.E(apierror.KindValidation, "quantities cannot be negative")
	}
	if err := checkQuantityScale("initial_quantity", req.InitialQuantity); err != nil {
		return nil, err
	}
	if err := checkQuantityScale("reorder_threshold", req.ReorderThreshold); err != nil {
		return nil, err
	}
	// The opening balance is the ledger baseline, not a movement.
	ing := &model.Ingredient{
		ID:               uuid.New(),
		Name:             req.Name,
		Unit:             req.Unit,
		Quantity:         req.InitialQuantity,
		InitialQuantity:  req.InitialQuantity,
		ReorderThreshold: req.ReorderThreshold,
		Active:           true,
	}
	if err := s.ingredients.Create(ctx, ing); err != nil {
		return nil, err
	}
	log.Info().Str("ingredient_id", ing.ID.String()).Str("name", ing.Name).Str("actor", actor.Label()).Msg("stock: ingredient created")
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *stockService) UpdateIngredient(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateIngredientRequest) (*dto.IngredientResponse, error) {
	if err := authz.Require(actor, authz.PermIngredientManage); err != nil {
		return nil, err
	}
	ing, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ingredient %s not found", id)
	}
	if req.Name != nil {
		ing.Name = *req.Name
	}
	if req.Unit != nil {
		ing.Unit = *req.Unit
	}
	if req.ReorderThreshold != nil {
		if req.ReorderThreshold.IsNegative() {
			return nil, apierror.E(apierror.KindValidation, "reorder_threshold cannot be negative")
		}
		if err := checkQuantityScale("reorder_threshold", *req.ReorderThreshold); err != nil {
			return nil, err
		}
		ing.ReorderThreshold = *req.ReorderThreshold
	}
	if req.Active != nil {
		ing.Active = *req.Active
	}
	if err := s.ingredients.Update(ctx, ing); err != nil {
		return nil, err
	}
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *stockService) GetIngredient(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	ing, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ingredient %s not found", id)
	}
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *stockService) ListIngredients(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.IngredientResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	list, err := s.ingredients.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	return ingredientsToResponse(list), nil
}

func (s *stockService) LowStock(ctx context.Context, actor authz.Actor) ([]dto.IngredientResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	list, err := s.ingredients.ListLow(ctx)
	if err != nil {
		return nil, err
	}
	return ingredientsToResponse(list), nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (s *stockService) AdjustStock(ctx context.Context, actor authz.Actor, ingredientID uuid.UUID, req dto.AdjustStockRequest) (*dto.StockMovementResponse, error) {
	perm := authz.PermStockAdjust
	switch req.Reason {
	case model.ReasonAdjustment:
	case model.ReasonForce:
		perm = authz.PermStockForceAdjust
	default:
		return nil, apierror.E(apierror.KindValidation, "reason must be %q or %q", model.ReasonAdjustment, model.ReasonForce)
	}
	if err := authz.Require(actor, perm); err != nil {
		return nil, err
	}
	if req.Delta.IsZero() {
		return nil, apierror.E(apierror.KindValidation, "delta cannot be zero")
	}
	if err := checkQuantityScale("delta", req.Delta); err != nil {
		countRejection("adjust_stock", err)
		return nil, err
	}

	var movement *model.StockMovement
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		movement, err = s.applyTx(tx, ingredientID, req.Delta, req.Reason, actor, nil, req.Note)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNegativeStock):
			err = apierror.E(apierror.KindValidation, "adjustment of %s would leave ingredient %s below zero", req.Delta, ingredientID)
		case repository.IsNotFound(err):
			err = apierror.E(apierror.KindNotFound, "ingredient %s not found", ingredientID)
		}
		countRejection("adjust_stock", err)
		return nil, err
	}

	recordMovements(*movement)
	log.Info().
		Str("ingredient_id", ingredientID.String()).
		Str("delta", req.Delta.String()).
		Str("reason", req.Reason).
		Str("actor", actor.Label()).
		Msg("stock: adjusted")
	if req.Delta.IsNegative() {
		s.NotifyLowStock(ctx, actor, []uuid.UUID{ingredientID})
	}
	resp := movementToResponse(movement)
	return &resp, nil
}

func (s *stockService) DecrementForOrder(ctx context.Context, actor authz.Actor, order *model.Order) error {
	var moved []model.StockMovement
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		moved, err = s.DecrementForOrderTx(ctx, tx, actor, order)
		return err
	})
	if err != nil {
		return err
	}
	recordMovements(moved...)
	s.NotifyLowStock(ctx, actor, movedIngredients(moved))
	return nil
}

func (s *stockService) DecrementForOrderTx(ctx context.Context, tx *gorm.DB, actor authz.Actor, order *model.Order) ([]model.StockMovement, error) {
	qtyByItem := make(map[uuid.UUID]int, len(order.Items))
	itemIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, it := range order.Items {
		if _, ok := qtyByItem[it.MenuItemID]; !ok {
			itemIDs = append(itemIDs, it.MenuItemID)
		}
		qtyByItem[it.MenuItemID] += it.Quantity
	}
	lines, err := s.menu.ListRecipes(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	needs := recipeNeeds(lines, qtyByItem)

	note := fmt.Sprintf("order #%d", order.Number)
	moved := make([]model.StockMovement, 0, len(needs))
	for _, id := range sortedIDs(needs) {
		m, err := s.applyTx(tx, id, needs[id].Neg(), model.ReasonSale, actor, &order.ID, note)
		if err != nil {
			if errors.Is(err, repository.ErrNegativeStock) {
				return nil, s.insufficient(ctx, id, needs[id], order.Number)
			}
			return nil, notFoundOr(err, "recipe ingredient %s not found", id)
		}
		moved = append(moved, *m)
	}
	return moved, nil
}

func (s *stockService) RestoreForOrderTx(_ context.Context, tx *gorm.DB, actor authz.Actor, order *model.Order) ([]model.StockMovement, error) {
	sales, err := s.movements.ListByReferenceTx(tx, order.ID, model.ReasonSale)
	if err != nil {
		return nil, err
	}
	consumed := make(map[uuid.UUID]decimal.Decimal, len(sales))
	for _, m := range sales {
		consumed[m.IngredientID] = consumed[m.IngredientID].Add(m.Delta.Neg())
	}

	note := fmt.Sprintf("order #%d cancelled", order.Number)
	moved := make([]model.StockMovement, 0, len(consumed))
	for _, id := range sortedIDs(consumed) {
		if !consumed[id].IsPositive() {
			continue
		}
		m, err := s.applyTx(tx, id, consumed[id], model.ReasonSaleReversal, actor, &order.ID, note)
		if err != nil {
			return nil, err
		}
		moved = append(moved, *m)
	}
	return moved, nil
}

// applyTx is the only writer of ingredient quantities: one guarded update
// plus one ledger entry.
func (s *stockService) applyTx(tx *gorm.DB, ingredientID uuid.UUID, delta decimal.Decimal, reason string, actor authz.Actor, ref *uuid.UUID, note string) (*model.StockMovement, error) {
	before, after, err := s.ingredients.ApplyDeltaTx(tx, ingredientID, delta, reason == model.ReasonForce)
	if err != nil {
		return nil, err
	}
	m := &model.StockMovement{
		ID:             uuid.New(),
		IngredientID:   ingredientID,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         reason,
		Note:           note,
		Actor:          actor.Label(),
		ReferenceID:    ref,
		CreatedAt:      s.now(),
	}
	if err := s.movements.CreateTx(tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *stockService) insufficient(ctx context.Context, id uuid.UUID, need decimal.Decimal, orderNumber int) error {
	name, unit := id.String(), ""
	if ing, err := s.ingredients.FindByID(ctx, id); err == nil {
		name, unit = ing.Name, " "+ing.Unit
	}
	return apierror.E(apierror.KindInsufficientStock,
		"insufficient stock of %s: order #%d needs %s%s", name, orderNumber, need.String(), unit)
}

func (s *stockService) ListMovements(ctx context.Context, actor authz.Actor, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	f := repository.StockMovementFilter{Reason: filter.Reason, Page: filter.Page, Limit: filter.Limit}
	if filter.IngredientID != "" {
		id, err := uuid.Parse(filter.IngredientID)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "invalid ingredient_id %q", filter.IngredientID)
		}
		f.IngredientID = &id
	}
	list, total, err := s.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data:  make([]dto.StockMovementResponse, len(list)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range list {
		resp.Data[i] = movementToResponse(&list[i])
	}
	return resp, nil
}

// Reconcile checks that the movement log explains the cached quantity.
func (s *stockService) Reconcile(ctx context.Context, actor authz.Actor, ingredientID uuid.UUID) (*dto.ReconcileResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	ing, err := s.ingredients.FindByID(ctx, ingredientID)
	if err != nil {
		return nil, notFoundOr(err, "ingredient %s not found", ingredientID)
	}
	sum, err := s.movements.SumForIngredient(ctx, ing.ID)
	if err != nil {
		return nil, err
	}
	consistent := sum.Equal(ing.Quantity.Sub(ing.InitialQuantity))
	if !consistent {
		log.Error().
			Str("ingredient_id", ing.ID.String()).
			Str("quantity", ing.Quantity.String()).
			Str("initial", ing.InitialQuantity.String()).
			Str("movement_sum", sum.String()).
			Msg("stock: ledger does not reconcile")
	}
	return &dto.ReconcileResponse{
		IngredientID:    ing.ID.String(),
		Quantity:        ing.Quantity,
		InitialQuantity: ing.InitialQuantity,
		MovementSum:     sum,
		Consistent:      consistent,
	}, nil
}

// ── Ingredient requests ──────────────────────────────────────────────────────

func (s *stockService) CreateRequest(ctx context.Context, actor authz.Actor, req dto.CreateIngredientRequestRequest) (*dto.IngredientRequestResponse, error) {
	if err := authz.Require(actor, authz.PermRequestCreate); err != nil {
		return nil, err
	}
	ingID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		return nil, apierror.E(apierror.KindValidation, "invalid ingredient_id %q", req.IngredientID)
	}
	if !req.Quantity.IsPositive() {
		return nil, apierror.E(apierror.KindValidation, "quantity must be positive")
	}
	if err := checkQuantityScale("quantity", req.Quantity); err != nil {
		return nil, err
	}
	ing, err := s.ingredients.FindByID(ctx, ingID)
	if err != nil {
		return nil, notFoundOr(err, "ingredient %s not found", ingID)
	}
	r := &model.IngredientRequest{
		ID:           uuid.New(),
		IngredientID: ingID,
		Quantity:     req.Quantity,
		Status:       model.RequestPending,
		Note:         req.Note,
		RequestedBy:  actor.Label(),
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
		Ingredient:   ing,
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}
	log.Info().Str("request_id", r.ID.String()).Str("ingredient", ing.Name).Str("actor", actor.Label()).Msg("stock: ingredient requested")
	resp := requestToResponse(r)
	return &resp, nil
}

func (s *stockService) ListRequests(ctx context.Context, actor authz.Actor, status string) ([]dto.IngredientRequestResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	list, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.IngredientRequestResponse, len(list))
	for i := range list {
		resp[i] = requestToResponse(&list[i])
	}
	return resp, nil
}

func (s *stockService) ApproveRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error) {
	return s.review(ctx, actor, id, model.RequestApproved)
}

func (s *stockService) RejectRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error) {
	return s.review(ctx, actor, id, model.RequestRejected)
}

func (s *stockService) review(ctx context.Context, actor authz.Actor, id uuid.UUID, to string) (*dto.IngredientRequestResponse, error) {
	if err := authz.Require(actor, authz.PermRequestReview); err != nil {
		return nil, err
	}
	if _, err := s.requests.FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "ingredient request %s not found", id)
	}
	now := s.now()
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		ok, err := s.requests.TransitionTx(tx, id, []string{model.RequestPending}, map[string]interface{}{
			"status":      to,
			"reviewed_by": actor.Label(),
			"reviewed_at": now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apierror.E(apierror.KindInvalidTransition, "ingredient request %s is no longer pending", id)
		}
		return nil
	})
	if err != nil {
		countRejection("review_ingredient_request", err)
		return nil, err
	}
	return s.reloadRequest(ctx, id)
}

func (s *stockService) FulfillIngredientRequest(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error) {
	if err := authz.Require(actor, authz.PermRequestFulfill); err != nil {
		return nil, err
	}
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ingredient request %s not found", id)
	}

	now := s.now()
	var movement *model.StockMovement
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		ok, err := s.requests.TransitionTx(tx, id, []string{model.RequestPending, model.RequestApproved}, map[string]interface{}{
			"status":       model.RequestFulfilled,
			"fulfilled_by": actor.Label(),
			"fulfilled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apierror.E(apierror.KindInvalidTransition, "ingredient request %s cannot be fulfilled from status %s", id, r.Status)
		}
		movement, err = s.applyTx(tx, r.IngredientID, r.Quantity, model.ReasonRequestFulfillment, actor, &r.ID, "")
		return err
	})
	if err != nil {
		err = notFoundOr(err, "ingredient %s not found", r.IngredientID)
		countRejection("fulfill_ingredient_request", err)
		return nil, err
	}
	recordMovements(*movement)
	log.Info().Str("request_id", id.String()).Str("quantity", r.Quantity.String()).Str("actor", actor.Label()).Msg("stock: ingredient request fulfilled")
	return s.reloadRequest(ctx, id)
}

func (s *stockService) reloadRequest(ctx context.Context, id uuid.UUID) (*dto.IngredientRequestResponse, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := requestToResponse(r)
	return &resp, nil
}

// ── Alerts ───────────────────────────────────────────────────────────────────

func (s *stockService) NotifyLowStock(ctx context.Context, actor authz.Actor, ingredientIDs []uuid.UUID) {
	if s.alerts == nil || len(ingredientIDs) == 0 {
		return
	}
	list, err := s.ingredients.FindByIDs(ctx, ingredientIDs)
	if err != nil {
		log.Warn().Err(err).Msg("stock: low-stock lookup failed")
		return
	}
	payload := worker.LowStockAlertPayload{TriggeredBy: actor.Label(), At: s.now()}
	for _, ing := range list {
		if ing.Active && ing.Low() {
			payload.Items = append(payload.Items, worker.LowStockItem{
				IngredientID: ing.ID.String(),
				Name:         ing.Name,
				Unit:         ing.Unit,
				Quantity:     ing.Quantity.String(),
				Threshold:    ing.ReorderThreshold.String(),
			})
		}
	}
	if len(payload.Items) == 0 {
		return
	}
	if err := s.alerts.EnqueueLowStockAlert(ctx, payload); err != nil {
		log.Warn().Err(err).Int("items", len(payload.Items)).Msg("stock: failed to enqueue low-stock alert")
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// sortedIDs fixes the lock order for multi-row updates.
func sortedIDs(m map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func movedIngredients(moved []model.StockMovement) []uuid.UUID {
	ids := make([]uuid.UUID, len(moved))
	for i, m := range moved {
		ids[i] = m.IngredientID
	}
	return ids
}

func recordMovements(moved ...model.StockMovement) {
	for _, m := range moved {
		metrics.StockMovements.WithLabelValues(m.Reason).Inc()
	}
}

func ingredientToResponse(i *model.Ingredient) dto.IngredientResponse {
	return dto.IngredientResponse{
		ID:               i.ID.String(),
		Name:             i.Name,
		Unit:             i.Unit,
		Quantity:         i.Quantity,
		InitialQuantity:  i.InitialQuantity,
		ReorderThreshold: i.ReorderThreshold,
		Low:              i.Low(),
		Active:           i.Active,
	}
}

func ingredientsToResponse(list []model.Ingredient) []dto.IngredientResponse {
	resp := make([]dto.IngredientResponse, len(list))
	for i := range list {
		resp[i] = ingredientToResponse(&list[i])
	}
	return resp
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	resp := dto.StockMovementResponse{
		ID:             m.ID.String(),
		IngredientID:   m.IngredientID.String(),
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		Note:           m.Note,
		Actor:          m.Actor,
		CreatedAt:      m.CreatedAt,
	}
	if m.Ingredient != nil {
		resp.IngredientName = m.Ingredient.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

func requestToResponse(r *model.IngredientRequest) dto.IngredientRequestResponse {
	resp := dto.IngredientRequestResponse{
		ID:           r.ID.String(),
		IngredientID: r.IngredientID.String(),
		Quantity:     r.Quantity,
		Status:       r.Status,
		Note:         r.Note,
		RequestedBy:  r.RequestedBy,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		FulfilledBy:  r.FulfilledBy,
		FulfilledAt:  r.FulfilledAt,
		CreatedAt:    r.CreatedAt,
	}
	if r.Ingredient != nil {
		resp.IngredientName = r.Ingredient.Name
	}
	return resp
}
