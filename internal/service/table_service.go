package service

import (
	"context"
	"strings"
	"time"

	"teranga/internal/apierror"
	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/metrics"
	"teranga/internal/model"
	"teranga/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxSessionAttempts bounds the insert/read-back loop in CreateTableSession.
// A retry is only needed when the winning session is closed between our
// conflicting insert and the read-back.
const maxSessionAttempts = 3

type TableService interface {
	CreateTable(ctx context.Context, actor authz.Actor, req dto.CreateTableRequest) (*dto.TableResponse, error)
	UpdateTable(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateTableRequest) (*dto.TableResponse, error)
	GetTable(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.TableResponse, error)
	ListTables(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.TableResponse, error)
	DeactivateTable(ctx context.Context, actor authz.Actor, id uuid.UUID) error

	// GetTableByToken returns nil without error when the token is unknown or
	// the table is inactive.
	GetTableByToken(ctx context.Context, token string) (*model.Table, error)
	// GetActiveSession returns nil without error when the table has no
	// active session.
	GetActiveSession(ctx context.Context, tableID uuid.UUID) (*model.TableSession, error)
	// CreateTableSession is the QR scan: it returns the active session of the
	// table, creating it when there is none.
	CreateTableSession(ctx context.Context, tableToken string) (*dto.OpenSessionResponse, error)
	GetSessionByToken(ctx context.Context, sessionToken string) (*dto.OpenSessionResponse, error)
	CloseSession(ctx context.Context, actor authz.Actor, sessionID uuid.UUID) (*dto.SessionResponse, error)
	ResetTable(ctx context.Context, actor authz.Actor, tableID uuid.UUID) (*dto.TableResponse, error)
}

type tableService struct {
	tables        repository.TableRepository
	sessions      repository.SessionRepository
	publicBaseURL string
	now           func() time.Time
}

func NewTableService(tables repository.TableRepository, sessions repository.SessionRepository, publicBaseURL string) TableService {
	return &tableService{
		tables:        tables,
		sessions:      sessions,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// ── Staff table management ───────────────────────────────────────────────────

func (s *tableService) CreateTable(ctx context.Context, actor authz.Actor, req dto.CreateTableRequest) (*dto.TableResponse, error) {
	if err := authz.Require(actor, authz.PermTableManage); err != nil {
		return nil, err
	}
	token, err := newCapabilityToken()
	if err != nil {
		return nil, err
	}
	seats := req.Seats
	if seats == 0 {
		seats = 2
	}
	t := &model.Table{
		ID:       uuid.New(),
		Label:    strings.TrimSpace(req.Label),
		Location: strings.TrimSpace(req.Location),
		Seats:    seats,
		Token:    token,
		Active:   true,
	}
	if t.Label == "" {
		return nil, apierror.E(apierror.KindValidation, "label is required")
	}
	if err := s.tables.Create(ctx, t); err != nil {
		return nil, err
	}
	log.Info().Str("table_id", t.ID.String()).Str("label", t.Label).Str("actor", actor.Label()).Msg("table: created")
	return s.toResponse(t, nil), nil
}

func (s *tableService) UpdateTable(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateTableRequest) (*dto.TableResponse, error) {
	if err := authz.Require(actor, authz.PermTableManage); err != nil {
		return nil, err
	}
	t, err := s.tables.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "table %s not found", id)
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, apierror.E(apierror.KindValidation, "label cannot be empty")
		}
		t.Label = label
	}
	if req.Location != nil {
		t.Location = strings.TrimSpace(*req.Location)
	}
	if req.Seats != nil {
		t.Seats = *req.Seats
	}
	if err := s.tables.Update(ctx, t); err != nil {
		return nil, err
	}
	active, err := s.GetActiveSession(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(t, active), nil
}

func (s *tableService) GetTable(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.TableResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	t, err := s.tables.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "table %s not found", id)
	}
	active, err := s.GetActiveSession(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(t, active), nil
}

func (s *tableService) ListTables(ctx context.Context, actor authz.Actor, includeInactive bool) ([]dto.TableResponse, error) {
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		return nil, err
	}
	tables, err := s.tables.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TableResponse, 0, len(tables))
	for i := range tables {
		active, err := s.GetActiveSession(ctx, tables[i].ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *s.toResponse(&tables[i], active))
	}
	return resp, nil
}

// DeactivateTable hides the table from QR scans and closes its session.
func (s *tableService) DeactivateTable(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := authz.Require(actor, authz.PermTableManage); err != nil {
		return err
	}
	t, err := s.tables.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "table %s not found", id)
	}
	t.Active = false
	if err := s.tables.Update(ctx, t); err != nil {
		return err
	}
	if _, err := s.closeActive(ctx, actor, t.ID); err != nil {
		return err
	}
	log.Info().Str("table_id", t.ID.String()).Str("actor", actor.Label()).Msg("table: deactivated")
	return nil
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *tableService) GetTableByToken(ctx context.Context, token string) (*model.Table, error) {
	if token == "" {
		return nil, nil
	}
	t, err := s.tables.FindByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !t.Active {
		return nil, nil
	}
	return t, nil
}

func (s *tableService) GetActiveSession(ctx context.Context, tableID uuid.UUID) (*model.TableSession, error) {
	sess, err := s.sessions.FindActiveByTable(ctx, tableID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (s *tableService) CreateTableSession(ctx context.Context, tableToken string) (*dto.OpenSessionResponse, error) {
	table, err := s.GetTableByToken(ctx, tableToken)
	if err != nil {
		return nil, err
	}
	if table == nil {
		err := apierror.E(apierror.KindNotFound, "table not found")
		countRejection("create_table_session", err)
		return nil, err
	}

	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		existing, err := s.GetActiveSession(ctx, table.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return openSessionResponse(existing, table, false), nil
		}

		token, err := newCapabilityToken()
		if err != nil {
			return nil, err
		}
		sess := &model.TableSession{
			ID:       uuid.New(),
			TableID:  table.ID,
			Token:    token,
			Status:   model.SessionActive,
			OpenedAt: s.now(),
		}
		created, err := s.sessions.CreateIfNoActive(ctx, sess)
		if err != nil {
			return nil, err
		}
		if created {
			metrics.SessionsOpened.Inc()
			log.Info().Str("table_id", table.ID.String()).Str("session_id", sess.ID.String()).Msg("session: opened")
			return openSessionResponse(sess, table, true), nil
		}
		// Another scan won the insert; loop to read its session back.
	}
	return nil, apierror.E(apierror.KindConflict, "table %s is changing state, retry", table.Label)
}

func (s *tableService) GetSessionByToken(ctx context.Context, sessionToken string) (*dto.OpenSessionResponse, error) {
	sess, err := s.sessions.FindByToken(ctx, sessionToken)
	if err != nil {
		return nil, notFoundOr(err, "session not found")
	}
	table := sess.Table
	if table == nil {
		if table, err = s.tables.FindByID(ctx, sess.TableID); err != nil {
			return nil, notFoundOr(err, "table %s not found", sess.TableID)
		}
	}
	return openSessionResponse(sess, table, false), nil
}

func (s *tableService) CloseSession(ctx context.Context, actor authz.Actor, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	if err := authz.Require(actor, authz.PermSessionClose); err != nil {
		return nil, err
	}
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundOr(err, "session %s not found", sessionID)
	}
	at := s.now()
	closed, err := s.sessions.Close(ctx, sess.ID, actor.Label(), at)
	if err != nil {
		return nil, err
	}
	if !closed {
		err := apierror.E(apierror.KindInvalidTransition, "session %s is already closed", sessionID)
		countRejection("close_session", err)
		return nil, err
	}
	label := actor.Label()
	sess.Status = model.SessionClosed
	sess.ClosedAt = &at
	sess.ClosedBy = &label
	log.Info().Str("session_id", sess.ID.String()).Str("actor", label).Msg("session: closed")
	resp := sessionToResponse(sess, "")
	return &resp, nil
}

// ResetTable closes the active session, if any, so the next scan starts a
// fresh one.
func (s *tableService) ResetTable(ctx context.Context, actor authz.Actor, tableID uuid.UUID) (*dto.TableResponse, error) {
	if err := authz.Require(actor, authz.PermSessionClose); err != nil {
		return nil, err
	}
	t, err := s.tables.FindByID(ctx, tableID)
	if err != nil {
		return nil, notFoundOr(err, "table %s not found", tableID)
	}
	if _, err := s.closeActive(ctx, actor, t.ID); err != nil {
		return nil, err
	}
	return s.toResponse(t, nil), nil
}

func (s *tableService) closeActive(ctx context.Context, actor authz.Actor, tableID uuid.UUID) (bool, error) {
	active, err := s.GetActiveSession(ctx, tableID)
	if err != nil || active == nil {
		return false, err
	}
	closed, err := s.sessions.Close(ctx, active.ID, actor.Label(), s.now())
	if err != nil {
		return false, err
	}
	if closed {
		log.Info().Str("table_id", tableID.String()).Str("session_id", active.ID.String()).Msg("session: closed by table reset")
	}
	return closed, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func (s *tableService) toResponse(t *model.Table, active *model.TableSession) *dto.TableResponse {
	resp := &dto.TableResponse{
		ID:       t.ID.String(),
		Label:    t.Label,
		Location: t.Location,
		Seats:    t.Seats,
		Token:    t.Token,
		QRURL:    s.publicBaseURL + "/t/" + t.Token,
		Active:   t.Active,
	}
	if active != nil {
		sr := sessionToResponse(active, t.Label)
		resp.ActiveSession = &sr
	}
	return resp
}

func sessionToResponse(sess *model.TableSession, tableLabel string) dto.SessionResponse {
	return dto.SessionResponse{
		ID:         sess.ID.String(),
		TableID:    sess.TableID.String(),
		TableLabel: tableLabel,
		Token:      sess.Token,
		Status:     sess.Status,
		OpenedAt:   sess.OpenedAt,
		ClosedAt:   sess.ClosedAt,
		ClosedBy:   sess.ClosedBy,
	}
}

func openSessionResponse(sess *model.TableSession, t *model.Table, created bool) *dto.OpenSessionResponse {
	return &dto.OpenSessionResponse{
		Created: created,
		Session: sessionToResponse(sess, t.Label),
		Table:   dto.PublicTable{ID: t.ID.String(), Label: t.Label, Location: t.Location},
	}
}
