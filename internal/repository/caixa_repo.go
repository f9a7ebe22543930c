package repository

import (
	"context"
	"time"

	"recantoverde/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaixaRepository interface {
	CreateSession(ctx context.Context, s *model.CaixaSession) error
	// FindOpenSession returns the single open session, or
	// gorm.ErrRecordNotFound when the drawer is closed. There is never more
	// than one open row (partial unique index on status).
	FindOpenSession(ctx context.Context) (*model.CaixaSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CaixaSession, error)
	// CloseSession freezes the session conditionally on it still being open;
	// false means another closer won the race.
	CloseSession(ctx context.Context, s *model.CaixaSession) (bool, error)
	CreateMovement(ctx context.Context, m *model.CaixaMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CaixaMovement, error)
	ListClosed(ctx context.Context, page, limit int) ([]model.CaixaSession, int64, error)
	ListClosedBetween(ctx context.Context, from, to time.Time) ([]model.CaixaSession, error)
}

type caixaRepo struct{ db *gorm.DB }

func NewCaixaRepository(db *gorm.DB) CaixaRepository { return &caixaRepo{db: db} }

func (r *caixaRepo) CreateSession(ctx context.Context, s *model.CaixaSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *caixaRepo) FindOpenSession(ctx context.Context) (*model.CaixaSession, error) {
	var s model.CaixaSession
	err := r.db.WithContext(ctx).
		Where("status = ?", model.CaixaOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *caixaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CaixaSession, error) {
	var s model.CaixaSession
	err := r.db.WithContext(ctx).
		Preload("Movements", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, id).Error
	return &s, err
}

func (r *caixaRepo) CloseSession(ctx context.Context, s *model.CaixaSession) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CaixaSession{}).
		Where("id = ? AND status = ?", s.ID, model.CaixaOpen).
		Updates(map[string]interface{}{
			"status":           model.CaixaClosed,
			"closed_by":        s.ClosedBy,
			"closed_at":        s.ClosedAt,
			"counted_balance":  s.CountedBalance,
			"expected_balance": s.ExpectedBalance,
			"discrepancy":      s.Discrepancy,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *caixaRepo) CreateMovement(ctx context.Context, m *model.CaixaMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *caixaRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CaixaMovement, error) {
	var movs []model.CaixaMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *caixaRepo) ListClosed(ctx context.Context, page, limit int) ([]model.CaixaSession, int64, error) {
	var sessions []model.CaixaSession
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.CaixaSession{}).
		Where("status = ?", model.CaixaClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *caixaRepo) ListClosedBetween(ctx context.Context, from, to time.Time) ([]model.CaixaSession, error) {
	var sessions []model.CaixaSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND closed_at >= ? AND closed_at < ?", model.CaixaClosed, from, to).
		Order("closed_at ASC").
		Find(&sessions).Error
	return sessions, err
}
