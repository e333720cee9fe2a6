package repository

import (
	"context"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/gorm"
)

type ProofRepository interface {
	Create(ctx context.Context, p *model.ProductProof) error
	FindByID(ctx context.Context, id uint64) (*model.ProductProof, error)
	FindLatestByOffer(ctx context.Context, offerID uint64) (*model.ProductProof, error)
	LatestRequested(ctx context.Context, offerID uint64) (*model.ProductProof, error)
	FillRequested(ctx context.Context, id uint64, imageURL, description string) (int64, error)
	UpdateStatus(ctx context.Context, id uint64, status model.ProofStatus) error
	WithTx(tx *gorm.DB) ProofRepository
}

type proofRepository struct {
	db *gorm.DB
}

func NewProofRepository(db *gorm.DB) ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) WithTx(tx *gorm.DB) ProofRepository {
	return &proofRepository{db: tx}
}

func (r *proofRepository) Create(ctx context.Context, p *model.ProductProof) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proofRepository) FindByID(ctx context.Context, id uint64) (*model.ProductProof, error) {
	var p model.ProductProof
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proofRepository) FindLatestByOffer(ctx context.Context, offerID uint64) (*model.ProductProof, error) {
	var p model.ProductProof
	if err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("id DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proofRepository) LatestRequested(ctx context.Context, offerID uint64) (*model.ProductProof, error) {
	var p model.ProductProof
	if err := r.db.WithContext(ctx).
		Where("offer_id = ? AND status = ?", offerID, model.ProofStatusRequested).
		Order("id DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FillRequested turns a requested shell into a pending submission. The status
// guard keeps a concurrent submission from overwriting the same shell.
func (r *proofRepository) FillRequested(ctx context.Context, id uint64, imageURL, description string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ProductProof{}).
		Where("id = ? AND status = ?", id, model.ProofStatusRequested).
		Updates(map[string]any{
			"image_url":   imageURL,
			"description": description,
			"status":      model.ProofStatusPending,
		})
	return res.RowsAffected, res.Error
}

func (r *proofRepository) UpdateStatus(ctx context.Context, id uint64, status model.ProofStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductProof{}).
		Where("id = ?", id).
		Update("status", status).Error
}
