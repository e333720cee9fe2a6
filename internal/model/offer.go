package model

import "time"

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

type NegotiationPhase string

const (
	NegotiationPhaseIdle       NegotiationPhase = "idle"
	NegotiationPhaseInProgress NegotiationPhase = "in_progress"
	NegotiationPhaseCompleted  NegotiationPhase = "completed"
)

// Offer is a bid against a Post. At most one offer per post ever reaches
// accepted; acceptance rejects every sibling pending offer in the same
// transaction.
type Offer struct {
	ID                uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID            uint64           `gorm:"column:post_id;index;not null" json:"postId"`
	MakerUID          string           `gorm:"column:maker_uid;size:128;index;not null" json:"makerUid"`
	Title             string           `gorm:"size:120" json:"title"`
	Description       string           `gorm:"type:text" json:"description"`
	Price             float64          `gorm:"not null" json:"price"`
	OriginalPrice     float64          `gorm:"column:original_price;not null" json:"originalPrice"`
	IsPublic          bool             `gorm:"column:is_public;default:true" json:"isPublic"`
	Status            OfferStatus      `gorm:"column:status;size:32;not null;default:pending" json:"status"`
	NegotiationStatus NegotiationPhase `gorm:"column:negotiation_status;size:32;not null;default:idle" json:"negotiationStatus"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Offer) TableName() string {
	return "offers"
}
