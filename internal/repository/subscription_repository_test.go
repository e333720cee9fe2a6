package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/peermarket/backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSubTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSubscriptionAddIdempotent(t *testing.T) {
	repo := NewSubscriptionRepository(newSubTestDB(t))
	ctx := context.Background()

	if err := repo.Add(ctx, "alice", "post:7"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, "alice", "post:7"); err != nil {
		t.Fatalf("second Add: %v", err)
	}

	topics, err := repo.ListTopics(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 1 || topics[0] != "post:7" {
		t.Fatalf("topics=%v want [post:7]", topics)
	}
}

func TestSubscriptionRemove(t *testing.T) {
	repo := NewSubscriptionRepository(newSubTestDB(t))
	ctx := context.Background()

	// Removing a non-member is a no-op.
	if err := repo.Remove(ctx, "alice", "post:7"); err != nil {
		t.Fatalf("Remove non-member: %v", err)
	}

	if err := repo.Add(ctx, "alice", "post:7"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(ctx, "alice", "tag:bikes"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Remove(ctx, "alice", "post:7"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	topics, err := repo.ListTopics(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 1 || topics[0] != "tag:bikes" {
		t.Fatalf("topics=%v want [tag:bikes]", topics)
	}
}
