package repository

import (
	"context"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	// Add is idempotent: subscribing twice leaves exactly one row.
	Add(ctx context.Context, userUID, topic string) error
	Remove(ctx context.Context, userUID, topic string) error
	ListTopics(ctx context.Context, userUID string) ([]string, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Add(ctx context.Context, userUID, topic string) error {
	sub := model.Subscription{UserUID: userUID, Topic: topic}
	return r.db.WithContext(ctx).
		Where("user_uid = ? AND topic = ?", userUID, topic).
		FirstOrCreate(&sub).Error
}

func (r *subscriptionRepository) Remove(ctx context.Context, userUID, topic string) error {
	return r.db.WithContext(ctx).
		Where("user_uid = ? AND topic = ?", userUID, topic).
		Delete(&model.Subscription{}).Error
}

func (r *subscriptionRepository) ListTopics(ctx context.Context, userUID string) ([]string, error) {
	var topics []string
	if err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_uid = ?", userUID).
		Order("topic ASC").
		Pluck("topic", &topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}
