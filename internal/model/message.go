package model

import (
	"encoding/json"
	"time"
)

// Message context types for mirrored workflow messages.
const (
	ContextTypeOffer       = "offer"
	ContextTypeNegotiation = "negotiation"
	ContextTypeProof       = "proof"
	ContextTypeEscrow      = "escrow"
)

// Message belongs to a Conversation. Workflow operations append mirrored
// messages whose Metadata carries the current offer/negotiation status so the
// chat UI can render state without re-fetching.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;index" json:"conversationId"`
	SenderUID      string    `gorm:"column:sender_uid;size:128;index" json:"senderUid"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	ContextType    string    `gorm:"column:context_type;size:32;index" json:"contextType,omitempty"`
	ContextID      uint64    `gorm:"column:context_id;index" json:"contextId,omitempty"`
	Metadata       string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// SetMetadata marshals m into the Metadata column.
func (msg *Message) SetMetadata(m map[string]any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	msg.Metadata = string(b)
	return nil
}
