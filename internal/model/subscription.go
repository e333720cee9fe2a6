package model

import "time"

// Subscription is a durable (user, topic) pair. It outlives any single
// connection and is replayed into the live registry at (re)connect time.
type Subscription struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserUID   string    `gorm:"column:user_uid;size:128;index:idx_user_topic,unique" json:"userUid"`
	Topic     string    `gorm:"column:topic;size:255;index:idx_user_topic,unique" json:"topic"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
