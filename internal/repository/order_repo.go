package repository

import (
	"context"
	"time"

	"recantoverde/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStamp carries the payment metadata written on the transition to paid.
type PaymentStamp struct {
	Method        string
	AmountCharged decimal.Decimal
	PayerName     *string
	PaidAt        time.Time
	RecordedBy    uuid.UUID
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Order, error)
	ListByTable(ctx context.Context, tableID uuid.UUID, statuses []string) ([]model.Order, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error)
	// UpdateStatusIf performs the conditional transition; false means the
	// order was no longer in `from` (a concurrent writer won).
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	// MarkPaidIf transitions to paid and stamps payment info in one
	// conditional update.
	MarkPaidIf(ctx context.Context, id uuid.UUID, from string, stamp PaymentStamp) (bool, error)
	// RevertPaid is the compensating write: back to `to`, payment info
	// cleared. Only applies while the order is still paid.
	RevertPaid(ctx context.Context, id uuid.UUID, to string) (bool, error)
	AppendStatusChange(ctx context.Context, c *model.OrderStatusChange) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&o, id).Error
	return &o, err
}

func (r *orderRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id IN ?", ids).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListByTable(ctx context.Context, tableID uuid.UUID, statuses []string) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("table_id = ?", tableID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("created_at ASC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) List(ctx context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) MarkPaidIf(ctx context.Context, id uuid.UUID, from string, stamp PaymentStamp) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":         model.OrderPaid,
			"payment_method": stamp.Method,
			"amount_charged": stamp.AmountCharged,
			"payer_name":     stamp.PayerName,
			"paid_at":        stamp.PaidAt,
			"recorded_by":    stamp.RecordedBy,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) RevertPaid(ctx context.Context, id uuid.UUID, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderPaid).
		Updates(map[string]interface{}{
			"status":         to,
			"payment_method": nil,
			"amount_charged": nil,
			"payer_name":     nil,
			"paid_at":        nil,
			"recorded_by":    nil,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) AppendStatusChange(ctx context.Context, c *model.OrderStatusChange) error {
	return r.db.WithContext(ctx).Create(c).Error
}
