package service

import (
	"context"
	"errors"

	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/repository"
	"gorm.io/gorm"
)

// ConversationService is the read side of the mirrored negotiation chat.
// Writes happen inside NegotiationService transactions.
type ConversationService interface {
	ListByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	ListMessages(ctx context.Context, convID uint64, uid string) ([]model.Message, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
}

func NewConversationService(convRepo repository.ConversationRepository) ConversationService {
	return &conversationService{convRepo: convRepo}
}

func (s *conversationService) ListByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	return s.convRepo.FindByUser(ctx, uid)
}

func (s *conversationService) ListMessages(ctx context.Context, convID uint64, uid string) ([]model.Message, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cv.OwnerUID != uid && cv.PeerUID != uid {
		return nil, ErrUnauthorized
	}
	return s.convRepo.ListMessages(ctx, convID)
}
