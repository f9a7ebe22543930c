package repository

import (
	"context"
	"time"

	"recantoverde/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TableRepository interface {
	Create(ctx context.Context, t *model.Table) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	// Occupy flips available → occupied as a single conditional update.
	// Returns false when the table was not available (lost the race or wrong
	// state) — of two concurrent calls exactly one sees true.
	Occupy(ctx context.Context, id uuid.UUID, clientCount int, serverID uuid.UUID, at time.Time) (bool, error)
	// SetClientCount updates the seated count guarded by the previous value.
	SetClientCount(ctx context.Context, id uuid.UUID, from, to int) (bool, error)
	// Release flips occupied → available and clears occupancy, conditionally.
	Release(ctx context.Context, id uuid.UUID) (bool, error)
}

type tableRepo struct{ db *gorm.DB }

func NewTableRepository(db *gorm.DB) TableRepository { return &tableRepo{db: db} }

func (r *tableRepo) Create(ctx context.Context, t *model.Table) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *tableRepo) List(ctx context.Context) ([]model.Table, error) {
	var tables []model.Table
	err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepo) Occupy(ctx context.Context, id uuid.UUID, clientCount int, serverID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ? AND status = ?", id, model.TableAvailable).
		Updates(map[string]interface{}{
			"status":       model.TableOccupied,
			"client_count": clientCount,
			"occupied_at":  at,
			"server_id":    serverID,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *tableRepo) SetClientCount(ctx context.Context, id uuid.UUID, from, to int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ? AND status = ? AND client_count = ?", id, model.TableOccupied, from).
		Update("client_count", to)
	return res.RowsAffected == 1, res.Error
}

func (r *tableRepo) Release(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ? AND status = ?", id, model.TableOccupied).
		Updates(map[string]interface{}{
			"status":       model.TableAvailable,
			"client_count": nil,
			"occupied_at":  nil,
			"server_id":    nil,
		})
	return res.RowsAffected == 1, res.Error
}
