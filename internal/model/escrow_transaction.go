package model

import "time"

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// EscrowTransaction holds funds for an offer. Multiple rows may exist per
// offer; the latest (highest id) is authoritative.
type EscrowTransaction struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID   uint64       `gorm:"column:offer_id;index;not null" json:"offerId"`
	BuyerUID  string       `gorm:"column:buyer_uid;size:128;index;not null" json:"buyerUid"`
	SellerUID string       `gorm:"column:seller_uid;size:128;index;not null" json:"sellerUid"`
	Amount    float64      `gorm:"not null" json:"amount"`
	Status    EscrowStatus `gorm:"column:status;size:32;not null;default:held" json:"status"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}
