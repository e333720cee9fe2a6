package model

import "time"

type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "open"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusFulfilled  RequestStatus = "fulfilled"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

type Post struct {
	ID            uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerUID      string        `gorm:"column:owner_uid;size:128;index;not null" json:"ownerUid"`
	Title         string        `gorm:"size:120;not null" json:"title"`
	Description   string        `gorm:"type:text" json:"description"`
	RequestStatus RequestStatus `gorm:"column:request_status;size:32;not null;default:open" json:"requestStatus"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Post) TableName() string {
	return "posts"
}
