package repository

import (
	"context"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/gorm"
)

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	FindByID(ctx context.Context, id uint64) (*model.Offer, error)
	ListByPost(ctx context.Context, postID uint64) ([]model.Offer, error)
	ListPendingByPost(ctx context.Context, postID uint64, exceptID uint64) ([]model.Offer, error)
	// AcceptIfPending flips the offer to accepted only while it is still
	// pending; the returned row count is zero when the caller lost the race.
	AcceptIfPending(ctx context.Context, id uint64) (int64, error)
	RejectIfPending(ctx context.Context, id uint64) (int64, error)
	UpdateStatus(ctx context.Context, id uint64, status model.OfferStatus) error
	UpdateNegotiationPhase(ctx context.Context, id uint64, phase model.NegotiationPhase) error
	UpdatePrice(ctx context.Context, id uint64, price float64) error
	WithTx(tx *gorm.DB) OfferRepository
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) WithTx(tx *gorm.DB) OfferRepository {
	return &offerRepository{db: tx}
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *offerRepository) FindByID(ctx context.Context, id uint64) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) ListByPost(ctx context.Context, postID uint64) ([]model.Offer, error) {
	var list []model.Offer
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepository) ListPendingByPost(ctx context.Context, postID uint64, exceptID uint64) ([]model.Offer, error) {
	var list []model.Offer
	q := r.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, model.OfferStatusPending)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepository) AcceptIfPending(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, model.OfferStatusPending).
		Updates(map[string]interface{}{
			"status":             model.OfferStatusAccepted,
			"negotiation_status": model.NegotiationPhaseCompleted,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *offerRepository) RejectIfPending(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, model.OfferStatusPending).
		Update("status", model.OfferStatusRejected)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *offerRepository) UpdateStatus(ctx context.Context, id uint64, status model.OfferStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *offerRepository) UpdateNegotiationPhase(ctx context.Context, id uint64, phase model.NegotiationPhase) error {
	return r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ?", id).
		Update("negotiation_status", phase).Error
}

func (r *offerRepository) UpdatePrice(ctx context.Context, id uint64, price float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ?", id).
		Update("price", price).Error
}
