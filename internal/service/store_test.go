package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"teranga/internal/model"
	"teranga/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────

// memStore backs every stub repository. Transaction snapshots the whole store
// and restores it when fn fails, so rollback is observable in tests.
type memStore struct {
	txMu sync.Mutex // serializes transactions
	mu   sync.Mutex // guards the maps

	users       map[uuid.UUID]model.User
	tables      map[uuid.UUID]model.Table
	sessions    map[uuid.UUID]model.TableSession
	categories  map[uuid.UUID]model.MenuCategory
	items       map[uuid.UUID]model.MenuItem
	recipes     []model.RecipeIngredient
	orders      map[uuid.UUID]model.Order
	statusLogs  []model.OrderStatusLog
	ingredients map[uuid.UUID]model.Ingredient
	movements   []model.StockMovement
	requests    map[uuid.UUID]model.IngredientRequest
	orderSeq    int
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]model.User{},
		tables:      map[uuid.UUID]model.Table{},
		sessions:    map[uuid.UUID]model.TableSession{},
		categories:  map[uuid.UUID]model.MenuCategory{},
		items:       map[uuid.UUID]model.MenuItem{},
		orders:      map[uuid.UUID]model.Order{},
		ingredients: map[uuid.UUID]model.Ingredient{},
		requests:    map[uuid.UUID]model.IngredientRequest{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memStore{
		users:       copyMap(s.users),
		tables:      copyMap(s.tables),
		sessions:    copyMap(s.sessions),
		categories:  copyMap(s.categories),
		items:       copyMap(s.items),
		recipes:     append([]model.RecipeIngredient(nil), s.recipes...),
		orders:      copyMap(s.orders),
		statusLogs:  append([]model.OrderStatusLog(nil), s.statusLogs...),
		ingredients: copyMap(s.ingredients),
		movements:   append([]model.StockMovement(nil), s.movements...),
		requests:    copyMap(s.requests),
		orderSeq:    s.orderSeq,
	}
}

func (s *memStore) restore(snap *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tables, s.sessions = snap.users, snap.tables, snap.sessions
	s.categories, s.items, s.recipes = snap.categories, snap.items, snap.recipes
	s.orders, s.statusLogs = snap.orders, snap.statusLogs
	s.ingredients, s.movements, s.requests = snap.ingredients, snap.movements, snap.requests
	s.orderSeq = snap.orderSeq
}

func (s *memStore) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

var _ repository.Transactor = (*memStore)(nil)

// ── Tables and sessions ───────────────────────────────────────────────────────

type stubTableRepo struct{ s *memStore }

func (r *stubTableRepo) Create(_ context.Context, t *model.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.tables[t.ID] = *t
	return nil
}

func (r *stubTableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Table, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *stubTableRepo) FindByToken(_ context.Context, token string) (*model.Table, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tables {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTableRepo) List(_ context.Context, includeInactive bool) ([]model.Table, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Table
	for _, t := range r.s.tables {
		if includeInactive || t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (r *stubTableRepo) Update(_ context.Context, t *model.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.tables[t.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	updated := *t
	updated.Token = prev.Token
	r.s.tables[t.ID] = updated
	return nil
}

type stubSessionRepo struct{ s *memStore }

func (r *stubSessionRepo) CreateIfNoActive(_ context.Context, sess *model.TableSession) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.sessions {
		if other.TableID == sess.TableID && other.Status == model.SessionActive {
			return false, nil
		}
	}
	r.s.sessions[sess.ID] = *sess
	return true, nil
}

func (r *stubSessionRepo) FindActiveByTable(_ context.Context, tableID uuid.UUID) (*model.TableSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.TableID == tableID && sess.Status == model.SessionActive {
			return &sess, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) withTable(sess model.TableSession) *model.TableSession {
	if t, ok := r.s.tables[sess.TableID]; ok {
		sess.Table = &t
	}
	return &sess
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TableSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withTable(sess), nil
}

func (r *stubSessionRepo) FindByToken(_ context.Context, token string) (*model.TableSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.Token == token {
			return r.withTable(sess), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) ListByTable(_ context.Context, tableID uuid.UUID, _ int) ([]model.TableSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.TableSession
	for _, sess := range r.s.sessions {
		if sess.TableID == tableID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) Close(_ context.Context, id uuid.UUID, closedBy string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok || sess.Status != model.SessionActive {
		return false, nil
	}
	sess.Status = model.SessionClosed
	sess.ClosedAt = &at
	sess.ClosedBy = &closedBy
	r.s.sessions[id] = sess
	return true, nil
}

// ── Menu ──────────────────────────────────────────────────────────────────────

type stubMenuRepo struct{ s *memStore }

func (r *stubMenuRepo) CreateCategory(_ context.Context, c *model.MenuCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.categories[c.ID] = *c
	return nil
}

func (r *stubMenuRepo) FindCategoryByID(_ context.Context, id uuid.UUID) (*model.MenuCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubMenuRepo) ListCategories(_ context.Context, includeInactive bool) ([]model.MenuCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.MenuCategory
	for _, c := range r.s.categories {
		if includeInactive || c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *stubMenuRepo) UpdateCategory(_ context.Context, c *model.MenuCategory) error {
	return r.CreateCategory(context.Background(), c)
}

func (r *stubMenuRepo) CreateItem(_ context.Context, m *model.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[m.ID] = *m
	return nil
}

func (r *stubMenuRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *stubMenuRepo) FindItemsByIDs(_ context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.MenuItem
	for _, id := range ids {
		if m, ok := r.s.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMenuRepo) ListItems(_ context.Context, f repository.MenuItemFilter) ([]model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.MenuItem
	for _, m := range r.s.items {
		if f.AvailableOnly && !m.Available {
			continue
		}
		if f.CategoryID != nil && (m.CategoryID == nil || *m.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubMenuRepo) UpdateItem(ctx context.Context, m *model.MenuItem) error {
	return r.CreateItem(ctx, m)
}

func (r *stubMenuRepo) ReplaceRecipeTx(_ *gorm.DB, menuItemID uuid.UUID, lines []model.RecipeIngredient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.recipes[:0:0]
	for _, l := range r.s.recipes {
		if l.MenuItemID != menuItemID {
			kept = append(kept, l)
		}
	}
	for _, l := range lines {
		l.MenuItemID = menuItemID
		kept = append(kept, l)
	}
	r.s.recipes = kept
	return nil
}

func (r *stubMenuRepo) ListRecipes(_ context.Context, menuItemIDs []uuid.UUID) ([]model.RecipeIngredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(menuItemIDs))
	for _, id := range menuItemIDs {
		want[id] = true
	}
	var out []model.RecipeIngredient
	for _, l := range r.s.recipes {
		if want[l.MenuItemID] {
			out = append(out, l)
		}
	}
	return out, nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

type stubOrderRepo struct{ s *memStore }

func (r *stubOrderRepo) NextNumberTx(_ *gorm.DB) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orderSeq++
	return r.s.orderSeq, nil
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *o
	stored.Items = append([]model.OrderItem(nil), o.Items...)
	r.s.orders[o.ID] = stored
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *stubOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.Channel != "" && o.Channel != f.Channel {
			continue
		}
		if f.SessionID != nil && (o.SessionID == nil || *o.SessionID != *f.SessionID) {
			continue
		}
		if f.TableID != nil && (o.TableID == nil || *o.TableID != *f.TableID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) ListByStatus(_ context.Context, statuses ...model.OrderStatus) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *stubOrderRepo) CompareAndSetStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.s.orders[id] = o
	return true, nil
}

func (r *stubOrderRepo) CreateStatusLogTx(_ *gorm.DB, l *model.OrderStatusLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.statusLogs = append(r.s.statusLogs, *l)
	return nil
}

func (r *stubOrderRepo) ListStatusLog(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.OrderStatusLog
	for _, l := range r.s.statusLogs {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, id uuid.UUID, method, paidBy string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.PaymentStatus != model.PaymentUnpaid || o.Status == model.OrderCancelled {
		return false, nil
	}
	o.PaymentStatus = model.PaymentPaid
	o.PaymentMethod = &method
	o.PaidBy = &paidBy
	o.PaidAt = &at
	r.s.orders[id] = o
	return true, nil
}

// ── Stock ─────────────────────────────────────────────────────────────────────

type stubIngredientRepo struct{ s *memStore }

func (r *stubIngredientRepo) Create(_ context.Context, i *model.Ingredient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ingredients[i.ID] = *i
	return nil
}

func (r *stubIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &i, nil
}

func (r *stubIngredientRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Ingredient
	for _, id := range ids {
		if i, ok := r.s.ingredients[id]; ok {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *stubIngredientRepo) List(_ context.Context, includeInactive bool) ([]model.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Ingredient
	for _, i := range r.s.ingredients {
		if includeInactive || i.Active {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *stubIngredientRepo) ListLow(_ context.Context) ([]model.Ingredient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Ingredient
	for _, i := range r.s.ingredients {
		if i.Active && i.Low() {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *stubIngredientRepo) Update(_ context.Context, i *model.Ingredient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.ingredients[i.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	prev.Name, prev.Unit, prev.ReorderThreshold, prev.Active = i.Name, i.Unit, i.ReorderThreshold, i.Active
	r.s.ingredients[i.ID] = prev
	return nil
}

func (r *stubIngredientRepo) ApplyDeltaTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.ingredients[id]
	if !ok {
		return decimal.Zero, decimal.Zero, gorm.ErrRecordNotFound
	}
	after := i.Quantity.Add(delta)
	if !allowNegative && after.IsNegative() {
		return decimal.Zero, decimal.Zero, repository.ErrNegativeStock
	}
	before := i.Quantity
	i.Quantity = after
	r.s.ingredients[id] = i
	return before, after, nil
}

type stubMovementRepo struct{ s *memStore }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.s.movements {
		if f.IngredientID != nil && m.IngredientID != *f.IngredientID {
			continue
		}
		if f.Reason != "" && m.Reason != f.Reason {
			continue
		}
		if f.ReferenceID != nil && (m.ReferenceID == nil || *m.ReferenceID != *f.ReferenceID) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) ListByReferenceTx(_ *gorm.DB, ref uuid.UUID, reason string) ([]model.StockMovement, error) {
	out, _, err := r.List(context.Background(), repository.StockMovementFilter{ReferenceID: &ref, Reason: reason})
	return out, err
}

func (r *stubMovementRepo) SumForIngredient(_ context.Context, ingredientID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, m := range r.s.movements {
		if m.IngredientID == ingredientID {
			total = total.Add(m.Delta)
		}
	}
	return total, nil
}

type stubRequestRepo struct{ s *memStore }

func (r *stubRequestRepo) Create(_ context.Context, req *model.IngredientRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *req
	stored.Ingredient = nil
	r.s.requests[req.ID] = stored
	return nil
}

func (r *stubRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.IngredientRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r *stubRequestRepo) List(_ context.Context, status string) ([]model.IngredientRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.IngredientRequest
	for _, req := range r.s.requests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *stubRequestRepo) TransitionTx(_ *gorm.DB, id uuid.UUID, from []string, updates map[string]interface{}) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, f := range from {
		if req.Status == f {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	req.Status = updates["status"].(string)
	if by, ok := updates["reviewed_by"].(string); ok {
		req.ReviewedBy = &by
	}
	if by, ok := updates["fulfilled_by"].(string); ok {
		req.FulfilledBy = &by
	}
	if at, ok := updates["fulfilled_at"].(time.Time); ok {
		req.FulfilledAt = &at
	}
	if at, ok := updates["reviewed_at"].(time.Time); ok {
		req.ReviewedAt = &at
	}
	r.s.requests[id] = req
	return true, nil
}

var (
	_ repository.TableRepository             = (*stubTableRepo)(nil)
	_ repository.SessionRepository           = (*stubSessionRepo)(nil)
	_ repository.MenuRepository              = (*stubMenuRepo)(nil)
	_ repository.OrderRepository             = (*stubOrderRepo)(nil)
	_ repository.IngredientRepository        = (*stubIngredientRepo)(nil)
	_ repository.StockMovementRepository     = (*stubMovementRepo)(nil)
	_ repository.IngredientRequestRepository = (*stubRequestRepo)(nil)
)
