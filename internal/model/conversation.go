package model

import "time"

type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint64    `gorm:"column:post_id;index:idx_post_peer,unique" json:"postId"`
	OwnerUID  string    `gorm:"column:owner_uid;size:128;index" json:"ownerUid"`
	PeerUID   string    `gorm:"column:peer_uid;size:128;index:idx_post_peer,unique" json:"peerUid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}
