package repository

import (
	"context"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/gorm"
)

type EscrowRepository interface {
	Create(ctx context.Context, t *model.EscrowTransaction) error
	// FindLatestByOffer returns the authoritative escrow row for an offer.
	FindLatestByOffer(ctx context.Context, offerID uint64) (*model.EscrowTransaction, error)
	WithTx(tx *gorm.DB) EscrowRepository
}

type escrowRepository struct {
	db *gorm.DB
}

func NewEscrowRepository(db *gorm.DB) EscrowRepository {
	return &escrowRepository{db: db}
}

func (r *escrowRepository) WithTx(tx *gorm.DB) EscrowRepository {
	return &escrowRepository{db: tx}
}

func (r *escrowRepository) Create(ctx context.Context, t *model.EscrowTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *escrowRepository) FindLatestByOffer(ctx context.Context, offerID uint64) (*model.EscrowTransaction, error) {
	var t model.EscrowTransaction
	if err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("id DESC").
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
