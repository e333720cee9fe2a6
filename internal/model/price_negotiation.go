package model

import "time"

type NegotiationStatus string

const (
	NegotiationStatusPending  NegotiationStatus = "pending"
	NegotiationStatusAccepted NegotiationStatus = "accepted"
	NegotiationStatusRejected NegotiationStatus = "rejected"
)

// PriceNegotiation is one counter-proposal belonging to exactly one Offer.
type PriceNegotiation struct {
	ID            uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID       uint64            `gorm:"column:offer_id;index;not null" json:"offerId"`
	ProposerUID   string            `gorm:"column:proposer_uid;size:128;index;not null" json:"proposerUid"`
	ProposedPrice float64           `gorm:"column:proposed_price;not null" json:"proposedPrice"`
	Message       string            `gorm:"type:text" json:"message"`
	Status        NegotiationStatus `gorm:"column:status;size:32;not null;default:pending" json:"status"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (PriceNegotiation) TableName() string {
	return "price_negotiations"
}
