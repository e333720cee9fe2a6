package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/realtime"
	"github.com/peermarket/backend/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWSTestHandler(t *testing.T) (*WSHandler, *realtime.Hub, *gorm.DB) {
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
	hub := realtime.NewHub(nil)
	return NewWSHandler(hub, repository.NewSubscriptionRepository(db)), hub, db
}

func serveWS(t *testing.T, h *WSHandler, uid string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	if err := h.Serve(c); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return rec
}

func TestServeRequiresUID(t *testing.T) {
	h, _, _ := newWSTestHandler(t)

	rec := serveWS(t, h, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d want 401", rec.Code)
	}
}

func TestServeFailsWhenReplayUnavailable(t *testing.T) {
	h, hub, db := newWSTestHandler(t)
	if err := db.Migrator().DropTable(&model.Subscription{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	rec := serveWS(t, h, "u1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code=%d want 500", rec.Code)
	}
	if hub.ConnectionCount("u1") != 0 {
		t.Fatalf("connection registered despite failed replay")
	}
}
