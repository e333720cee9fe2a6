package service

import (
	"context"

	"github.com/peermarket/backend/internal/eventbus"
	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/repository"
)

type NotificationService interface {
	// Save implements the realtime hub's NotificationStore.
	Save(ctx context.Context, userUID, topic string, ev eventbus.Event) error
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Save(ctx context.Context, userUID, topic string, ev eventbus.Event) error {
	if userUID == "" || ev.Type == "" {
		return nil
	}
	n := &model.Notification{
		UserUID:   userUID,
		Type:      ev.Type,
		Topic:     topic,
		SubjectID: ev.SubjectID,
		Message:   ev.Message,
	}
	return s.repo.Create(ctx, n)
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}
