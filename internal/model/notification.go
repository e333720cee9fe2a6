package model

import "time"

// Notification is the persisted copy of a broadcast event, one row per
// recipient.
type Notification struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserUID   string     `gorm:"column:user_uid;size:128;index;not null" json:"userUid"`
	Type      string     `gorm:"column:type;size:64;not null" json:"type"`
	Topic     string     `gorm:"column:topic;size:255;index" json:"topic"`
	SubjectID string     `gorm:"column:subject_id;size:64" json:"subjectId"`
	Message   string     `gorm:"column:message;type:text" json:"message"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
