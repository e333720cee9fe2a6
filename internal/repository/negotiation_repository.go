package repository

import (
	"context"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/gorm"
)

type NegotiationRepository interface {
	Create(ctx context.Context, n *model.PriceNegotiation) error
	FindByID(ctx context.Context, id uint64) (*model.PriceNegotiation, error)
	// LatestPending resolves the newest pending negotiation for an offer.
	// The id tie-break makes the result unique even on equal timestamps.
	LatestPending(ctx context.Context, offerID uint64) (*model.PriceNegotiation, error)
	ListByOffer(ctx context.Context, offerID uint64) ([]model.PriceNegotiation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.NegotiationStatus) error
	RejectPendingByOffer(ctx context.Context, offerID uint64, exceptID uint64) (int64, error)
	WithTx(tx *gorm.DB) NegotiationRepository
}

type negotiationRepository struct {
	db *gorm.DB
}

func NewNegotiationRepository(db *gorm.DB) NegotiationRepository {
	return &negotiationRepository{db: db}
}

func (r *negotiationRepository) WithTx(tx *gorm.DB) NegotiationRepository {
	return &negotiationRepository{db: tx}
}

func (r *negotiationRepository) Create(ctx context.Context, n *model.PriceNegotiation) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *negotiationRepository) FindByID(ctx context.Context, id uint64) (*model.PriceNegotiation, error) {
	var n model.PriceNegotiation
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negotiationRepository) LatestPending(ctx context.Context, offerID uint64) (*model.PriceNegotiation, error) {
	var n model.PriceNegotiation
	if err := r.db.WithContext(ctx).
		Where("offer_id = ? AND status = ?", offerID, model.NegotiationStatusPending).
		Order("created_at DESC, id DESC").
		First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negotiationRepository) ListByOffer(ctx context.Context, offerID uint64) ([]model.PriceNegotiation, error) {
	var list []model.PriceNegotiation
	if err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *negotiationRepository) UpdateStatus(ctx context.Context, id uint64, status model.NegotiationStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.PriceNegotiation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *negotiationRepository) RejectPendingByOffer(ctx context.Context, offerID uint64, exceptID uint64) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.PriceNegotiation{}).
		Where("offer_id = ? AND status = ?", offerID, model.NegotiationStatusPending)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	res := q.Update("status", model.NegotiationStatusRejected)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
