package model

import "time"

type ProofStatus string

const (
	// ProofStatusRequested is an empty shell created when the post owner asks
	// for evidence; the maker's submission fills it and moves it to pending.
	ProofStatusRequested ProofStatus = "requested"
	ProofStatusPending   ProofStatus = "pending"
	ProofStatusApproved  ProofStatus = "approved"
	ProofStatusRejected  ProofStatus = "rejected"
)

// ProductProof is delivery evidence submitted by an offer's maker. Only the
// post owner may transition its status.
type ProductProof struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID      uint64      `gorm:"column:offer_id;index;not null" json:"offerId"`
	SubmitterUID string      `gorm:"column:submitter_uid;size:128;index;not null" json:"submitterUid"`
	ImageURL     string      `gorm:"column:image_url;size:512" json:"imageUrl"`
	Description  string      `gorm:"type:text" json:"description"`
	Status       ProofStatus `gorm:"column:status;size:32;not null;default:pending" json:"status"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ProductProof) TableName() string {
	return "product_proofs"
}
