package service

import (
	"context"
	"math"
	"strings"
	"time"

	"teranga/internal/apierror"
	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/events"
	"teranga/internal/metrics"
	"teranga/internal/model"
	"teranga/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService is the order lifecycle manager.
type OrderService interface {
	// CreateOrder is the staff path; the table is optional.
	CreateOrder(ctx context.Context, actor authz.Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	// CreateSessionOrder is the diner path; the session token is the capability.
	CreateSessionOrder(ctx context.Context, sessionToken string, req dto.SessionOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, actor authz.Actor, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	ListSessionOrders(ctx context.Context, sessionToken string) ([]dto.OrderResponse, error)
	StatusHistory(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]dto.StatusLogResponse, error)
	KitchenBoard(ctx context.Context, actor authz.Actor) (*dto.KitchenBoardResponse, error)

	// UpdateOrderStatus moves an order along the state machine. Entering
	// confirmed consumes stock in the same transaction as the status write.
	UpdateOrderStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, newStatus string) (*dto.OrderResponse, error)
	ValidatePayment(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ValidatePaymentRequest) (*dto.OrderResponse, error)
}

type orderService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	menu     repository.MenuRepository
	tables   repository.TableRepository
	sessions repository.SessionRepository
	stock    StockService
	events   events.Publisher
	now      func() time.Time
}

func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	menu repository.MenuRepository,
	tables repository.TableRepository,
	sessions repository.SessionRepository,
	stock StockService,
	publisher events.Publisher,
) OrderService {
	return &orderService{
		tx:       tx,
		orders:   orders,
		menu:     menu,
		tables:   tables,
		sessions: sessions,
		stock:    stock,
		events:   publisher,
		now:      time.Now,
	}
}

// orderInput is the channel-independent shape of a new order.
type orderInput struct {
	sessionID    *uuid.UUID
	tableID      *uuid.UUID
	channel      string
	customerName *string
	notes        *string
	items        []dto.OrderItemRequest
	createdBy    string
}

// ── Creation ─────────────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, actor authz.Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if err := authz.Require(actor, authz.PermOrderCreate); err != nil {
		return nil, err
	}
	in := orderInput{
		channel:      req.Channel,
		customerName: req.CustomerName,
		notes:        req.Notes,
		items:        req.Items,
		createdBy:    actor.Label(),
	}
	if req.TableID != nil && *req.TableID != "" {
		tableID, err := uuid.Parse(*req.TableID)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "invalid table_id %q", *req.TableID)
		}
		if _, err := s.tables.FindByID(ctx, tableID); err != nil {
			return nil, notFoundOr(err, "table %s not found", tableID)
		}
		in.tableID = &tableID
		// Staff orders at a seated table join the diners' session.
		if sess, err := s.sessions.FindActiveByTable(ctx, tableID); err == nil {
			in.sessionID = &sess.ID
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	return s.create(ctx, in)
}

func (s *orderService) CreateSessionOrder(ctx context.Context, sessionToken string, req dto.SessionOrderRequest) (*dto.OrderResponse, error) {
	sess, err := s.activeSession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, orderInput{
		sessionID:    &sess.ID,
		tableID:      &sess.TableID,
		channel:      model.ChannelDineIn,
		customerName: req.CustomerName,
		notes:        req.Notes,
		items:        req.Items,
		createdBy:    authz.Anonymous.Label(),
	})
}

func (s *orderService) create(ctx context.Context, in orderInput) (*dto.OrderResponse, error) {
	order, err := s.buildOrder(ctx, in)
	if err != nil {
		countRejection("create_order", err)
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		number, err := s.orders.NextNumberTx(tx)
		if err != nil {
			return err
		}
		order.Number = number
		if err := s.orders.CreateTx(tx, order); err != nil {
			return err
		}
		return s.orders.CreateStatusLogTx(tx, &model.OrderStatusLog{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ToStatus:  model.OrderPending,
			ChangedBy: in.createdBy,
			CreatedAt: order.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(order.Channel).Inc()
	log.Info().
		Str("order_id", order.ID.String()).
		Int("number", order.Number).
		Str("channel", order.Channel).
		Str("total", order.Total.String()).
		Str("actor", in.createdBy).
		Msg("order: created")
	s.publish(ctx, events.Event{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		Number:  order.Number,
		Status:  string(order.Status),
		TableID: order.TableID,
		Actor:   in.createdBy,
		At:      order.CreatedAt,
	})
	resp := orderToResponse(order)
	return &resp, nil
}

// buildOrder validates the input and prices every line from the current
// menu. Client-side prices are never accepted.
func (s *orderService) buildOrder(ctx context.Context, in orderInput) (*model.Order, error) {
	switch in.channel {
	case model.ChannelDineIn, model.ChannelTakeaway, model.ChannelDelivery:
	default:
		return nil, apierror.E(apierror.KindValidation, "unknown channel %q", in.channel)
	}
	if len(in.items) == 0 {
		return nil, apierror.E(apierror.KindValidation, "an order needs at least one item")
	}

	ids := make([]uuid.UUID, 0, len(in.items))
	parsed := make([]uuid.UUID, len(in.items))
	seen := make(map[uuid.UUID]bool, len(in.items))
	for i, it := range in.items {
		id, err := uuid.Parse(it.MenuItemID)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "invalid menu_item_id %q", it.MenuItemID)
		}
		if it.Quantity <= 0 {
			return nil, apierror.E(apierror.KindValidation, "quantity for %s must be positive", id)
		}
		parsed[i] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	found, err := s.menu.FindItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	now := s.now()
	order := &model.Order{
		ID:            uuid.New(),
		SessionID:     in.sessionID,
		TableID:       in.tableID,
		Channel:       in.channel,
		Status:        model.OrderPending,
		CustomerName:  trimmed(in.customerName),
		Notes:         trimmed(in.notes),
		PaymentStatus: model.PaymentUnpaid,
		CreatedBy:     in.createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	subtotal := decimal.Zero
	for i, it := range in.items {
		m, ok := byID[parsed[i]]
		if !ok {
			return nil, apierror.E(apierror.KindNotFound, "menu item %s not found", parsed[i])
		}
		if !m.Available {
			return nil, apierror.E(apierror.KindValidation, "%s is not available", m.Name)
		}
		line := m.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		order.Items = append(order.Items, model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  m.Price,
			LineTotal:  line,
			Notes:      trimmed(it.Notes),
		})
		order.ItemCount += it.Quantity
		subtotal = subtotal.Add(line)
	}
	order.Subtotal = subtotal
	order.Total = subtotal
	return order, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.OrderResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", id)
	}
	resp := orderToResponse(o)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor authz.Actor, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	f := repository.OrderFilter{
		Status:  filter.Status,
		Channel: filter.Channel,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if filter.Status != "" && !model.OrderStatus(filter.Status).Valid() {
		return nil, apierror.E(apierror.KindValidation, "unknown status %q", filter.Status)
	}
	if filter.TableID != "" {
		id, err := uuid.Parse(filter.TableID)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "invalid table_id %q", filter.TableID)
		}
		f.TableID = &id
	}
	if filter.From != "" {
		t, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if filter.To != "" {
		t, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "to must be YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}
	resp := &dto.OrderListResponse{
		Data:       make([]dto.OrderResponse, len(orders)),
		Total:      total,
		Page:       filter.Page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	for i := range orders {
		resp.Data[i] = orderToResponse(&orders[i])
	}
	return resp, nil
}

func (s *orderService) ListSessionOrders(ctx context.Context, sessionToken string) ([]dto.OrderResponse, error) {
	sess, err := s.sessions.FindByToken(ctx, sessionToken)
	if err != nil {
		return nil, notFoundOr(err, "session not found")
	}
	orders, _, err := s.orders.List(ctx, repository.OrderFilter{SessionID: &sess.ID, Limit: 500})
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		resp[i] = orderToResponse(&orders[i])
	}
	return resp, nil
}

func (s *orderService) StatusHistory(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]dto.StatusLogResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "order %s not found", id)
	}
	logs, err := s.orders.ListStatusLog(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StatusLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = dto.StatusLogResponse{To: string(l.ToStatus), ChangedBy: l.ChangedBy, At: l.CreatedAt}
		if l.FromStatus != nil {
			from := string(*l.FromStatus)
			resp[i].From = &from
		}
	}
	return resp, nil
}

func (s *orderService) KitchenBoard(ctx context.Context, actor authz.Actor) (*dto.KitchenBoardResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByStatus(ctx, model.OrderConfirmed, model.OrderPreparing, model.OrderReady)
	if err != nil {
		return nil, err
	}
	board := &dto.KitchenBoardResponse{
		Confirmed: []dto.OrderResponse{},
		Preparing: []dto.OrderResponse{},
		Ready:     []dto.OrderResponse{},
	}
	for i := range orders {
		o := orderToResponse(&orders[i])
		switch orders[i].Status {
		case model.OrderConfirmed:
			board.Confirmed = append(board.Confirmed, o)
		case model.OrderPreparing:
			board.Preparing = append(board.Preparing, o)
		case model.OrderReady:
			board.Ready = append(board.Ready, o)
		}
	}
	return board, nil
}

// ── Status transitions ───────────────────────────────────────────────────────

func (s *orderService) UpdateOrderStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, newStatus string) (*dto.OrderResponse, error) {
	resp, err := s.updateStatus(ctx, actor, id, model.OrderStatus(newStatus))
	if err != nil {
		countRejection("update_order_status", err)
		return nil, err
	}
	return resp, nil
}

func (s *orderService) updateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, to model.OrderStatus) (*dto.OrderResponse, error) {
	if !to.Valid() {
		return nil, apierror.E(apierror.KindValidation, "unknown status %q", to)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", id)
	}
	from := order.Status
	perm, ok := TransitionPermission(from, to)
	if !ok {
		return nil, apierror.E(apierror.KindInvalidTransition, "order #%d cannot move from %s to %s", order.Number, from, to)
	}
	if err := authz.Require(actor, perm); err != nil {
		return nil, err
	}

	var moved []model.StockMovement
	now := s.now()
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		swapped, err := s.orders.CompareAndSetStatusTx(tx, order.ID, from, to)
		if err != nil {
			return err
		}
		if !swapped {
			return apierror.E(apierror.KindInvalidTransition, "order #%d is no longer %s", order.Number, from)
		}

		switch {
		case to == model.OrderConfirmed:
			moved, err = s.stock.DecrementForOrderTx(ctx, tx, actor, order)
		case to == model.OrderCancelled && from == model.OrderConfirmed:
			// Nothing was cooked yet; give the ingredients back.
			moved, err = s.stock.RestoreForOrderTx(ctx, tx, actor, order)
		}
		if err != nil {
			return err
		}

		return s.orders.CreateStatusLogTx(tx, &model.OrderStatusLog{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: &from,
			ToStatus:   to,
			ChangedBy:  actor.Label(),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = to
	order.UpdatedAt = now
	recordMovements(moved...)
	metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
	log.Info().
		Str("order_id", order.ID.String()).
		Int("number", order.Number).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", actor.Label()).
		Msg("order: status changed")
	s.publish(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		OrderID:    order.ID,
		Number:     order.Number,
		Status:     string(to),
		PrevStatus: string(from),
		TableID:    order.TableID,
		Actor:      actor.Label(),
		At:         now,
	})
	if to == model.OrderConfirmed {
		s.stock.NotifyLowStock(ctx, actor, movedIngredients(moved))
	}

	resp := orderToResponse(order)
	return &resp, nil
}

func (s *orderService) ValidatePayment(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ValidatePaymentRequest) (*dto.OrderResponse, error) {
	if err := authz.Require(actor, authz.PermPaymentValidate); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", id)
	}
	if order.Status == model.OrderCancelled {
		err := apierror.E(apierror.KindInvalidTransition, "order #%d is cancelled", order.Number)
		countRejection("validate_payment", err)
		return nil, err
	}
	now := s.now()
	marked, err := s.orders.MarkPaid(ctx, order.ID, req.Method, actor.Label(), now)
	if err != nil {
		return nil, err
	}
	if !marked {
		// Lost the race: a cancel or another payment landed after the read.
		err := apierror.E(apierror.KindConflict, "order #%d is already paid", order.Number)
		if current, ferr := s.orders.FindByID(ctx, id); ferr == nil && current.Status == model.OrderCancelled {
			err = apierror.E(apierror.KindInvalidTransition, "order #%d is cancelled", order.Number)
		}
		countRejection("validate_payment", err)
		return nil, err
	}

	label := actor.Label()
	method := req.Method
	order.PaymentStatus = model.PaymentPaid
	order.PaymentMethod = &method
	order.PaidAt = &now
	order.PaidBy = &label
	log.Info().Str("order_id", order.ID.String()).Str("method", method).Str("actor", label).Msg("order: payment validated")
	s.publish(ctx, events.Event{
		Type:    events.OrderPaid,
		OrderID: order.ID,
		Number:  order.Number,
		Status:  string(order.Status),
		TableID: order.TableID,
		Actor:   label,
		At:      now,
	})
	resp := orderToResponse(order)
	return &resp, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *orderService) activeSession(ctx context.Context, token string) (*model.TableSession, error) {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		err = notFoundOr(err, "session not found")
		countRejection("create_session_order", err)
		return nil, err
	}
	if sess.Status != model.SessionActive {
		err := apierror.E(apierror.KindNotFound, "session is closed")
		countRejection("create_session_order", err)
		return nil, err
	}
	return sess, nil
}

// publish never fails the caller: the change is already committed.
func (s *orderService) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("order_id", e.OrderID.String()).Str("type", string(e.Type)).Msg("order: event publish failed")
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func orderToResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		Channel:       o.Channel,
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		Notes:         o.Notes,
		Items:         make([]dto.OrderItemResponse, len(o.Items)),
		ItemCount:     o.ItemCount,
		Subtotal:      o.Subtotal,
		Total:         o.Total,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		PaidAt:        o.PaidAt,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.SessionID != nil {
		v := o.SessionID.String()
		resp.SessionID = &v
	}
	if o.TableID != nil {
		v := o.TableID.String()
		resp.TableID = &v
	}
	for i, it := range o.Items {
		resp.Items[i] = dto.OrderItemResponse{
			MenuItemID: it.MenuItemID.String(),
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.LineTotal,
			Notes:      it.Notes,
		}
	}
	return resp
}
