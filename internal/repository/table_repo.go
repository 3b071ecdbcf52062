package repository

import (
	"context"
	"time"

	"teranga/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TableRepository interface {
	Create(ctx context.Context, t *model.Table) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error)
	FindByToken(ctx context.Context, token string) (*model.Table, error)
	List(ctx context.Context, includeInactive bool) ([]model.Table, error)
	Update(ctx context.Context, t *model.Table) error
}

type tableRepo struct{ db *gorm.DB }

func NewTableRepository(db *gorm.DB) TableRepository { return &tableRepo{db: db} }

func (r *tableRepo) Create(ctx context.Context, t *model.Table) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *tableRepo) FindByToken(ctx context.Context, token string) (*model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	return &t, err
}

func (r *tableRepo) List(ctx context.Context, includeInactive bool) ([]model.Table, error) {
	var tables []model.Table
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("label").Find(&tables).Error
	return tables, err
}

// Update never rewrites the token column (see the model's create-only tag).
func (r *tableRepo) Update(ctx context.Context, t *model.Table) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// ── Sessions ─────────────────────────────────────────────────────────────────

type SessionRepository interface {
	// CreateIfNoActive inserts s unless the table already has an active
	// session. created is false when another session won.
	CreateIfNoActive(ctx context.Context, s *model.TableSession) (created bool, err error)
	FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*model.TableSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.TableSession, error)
	FindByToken(ctx context.Context, token string) (*model.TableSession, error)
	ListByTable(ctx context.Context, tableID uuid.UUID, limit int) ([]model.TableSession, error)
	// Close moves an active session to closed. closed is false when the
	// session was not active.
	Close(ctx context.Context, id uuid.UUID, closedBy string, at time.Time) (closed bool, err error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

// CreateIfNoActive relies on the partial unique index
// idx_table_sessions_one_active (table_id) WHERE status = 'active'.
func (r *sessionRepo) CreateIfNoActive(ctx context.Context, s *model.TableSession) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "table_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "status = 'active'"}}},
		DoNothing:   true,
	}).Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*model.TableSession, error) {
	var s model.TableSession
	err := r.db.WithContext(ctx).
		Where("table_id = ? AND status = ?", tableID, model.SessionActive).
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TableSession, error) {
	var s model.TableSession
	err := r.db.WithContext(ctx).Preload("Table").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) FindByToken(ctx context.Context, token string) (*model.TableSession, error) {
	var s model.TableSession
	err := r.db.WithContext(ctx).Preload("Table").Where("token = ?", token).First(&s).Error
	return &s, err
}

func (r *sessionRepo) ListByTable(ctx context.Context, tableID uuid.UUID, limit int) ([]model.TableSession, error) {
	_, size := pageBounds(1, limit)
	var sessions []model.TableSession
	err := r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("opened_at DESC").Limit(size).
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) Close(ctx context.Context, id uuid.UUID, closedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TableSession{}).
		Where("id = ? AND status = ?", id, model.SessionActive).
		Updates(map[string]interface{}{
			"status":    model.SessionClosed,
			"closed_at": at,
			"closed_by": closedBy,
		})
	return res.RowsAffected == 1, res.Error
}
