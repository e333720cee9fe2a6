package server

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/peermarket/backend/internal/config"
	"github.com/peermarket/backend/internal/eventbus"
	"github.com/peermarket/backend/internal/handler"
	appmw "github.com/peermarket/backend/internal/middleware"
	"github.com/peermarket/backend/internal/realtime"
	"github.com/peermarket/backend/internal/repository"
	"github.com/peermarket/backend/internal/service"
	"gorm.io/gorm"
)

// Server wires the engine, the realtime hub and the event bus together.
// Every dependency is constructed here once and passed down; nothing is
// process-global.
type Server struct {
	e   *echo.Echo
	bus eventbus.Publisher
	hub *realtime.Hub
}

func New(db *gorm.DB, cfg *config.Config) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			return u.Scheme == "http" || u.Scheme == "https", nil
		},
	}))

	postRepo := repository.NewPostRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	negRepo := repository.NewNegotiationRepository(db)
	proofRepo := repository.NewProofRepository(db)
	escrowRepo := repository.NewEscrowRepository(db)
	convRepo := repository.NewConversationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	notifSvc := service.NewNotificationService(notifRepo)
	hub := realtime.NewHub(notifSvc)

	var bus eventbus.Publisher
	if cfg.NATSURL != "" {
		nb, err := eventbus.NewNATSBus(cfg.NATSURL, hub)
		if err != nil {
			return nil, err
		}
		bus = nb
		log.Printf("event bus: nats (%s)", cfg.NATSURL)
	} else {
		bus = eventbus.NewBus(hub, cfg.EventBufferSize)
		log.Printf("event bus: in-process")
	}

	negSvc := service.NewNegotiationService(db, postRepo, offerRepo, negRepo, proofRepo, escrowRepo, convRepo, bus)
	postSvc := service.NewPostService(postRepo)
	convSvc := service.NewConversationService(convRepo)

	postHandler := handler.NewPostHandler(postSvc)
	offerHandler := handler.NewOfferHandler(negSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	wsHandler := handler.NewWSHandler(hub, subRepo)

	var authMw *appmw.AuthMiddleware
	if cfg.FirebaseProjectID != "" {
		mw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		authMw = mw
	} else {
		log.Printf("FIREBASE_PROJECT_ID not set; auth middleware disabled")
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	register := func(method, path string, h echo.HandlerFunc) {
		if authMw != nil {
			api.Add(method, path, h, authMw.RequireAuth)
			return
		}
		api.Add(method, path, h)
	}

	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get)
	register(http.MethodPost, "/posts", postHandler.Create)
	register(http.MethodPost, "/posts/:id/offers", offerHandler.Create)
	register(http.MethodPost, "/offers/:id/negotiate", offerHandler.Negotiate)
	register(http.MethodPost, "/offers/:id/accept", offerHandler.Accept)
	register(http.MethodPost, "/offers/:id/accept-counter", offerHandler.AcceptCounter)
	register(http.MethodPost, "/offers/:id/reject", offerHandler.Reject)
	register(http.MethodPost, "/offers/:id/proofs/request", offerHandler.RequestProof)
	register(http.MethodPost, "/offers/:id/proofs", offerHandler.SubmitProof)
	register(http.MethodPost, "/proofs/:proofId/approve", offerHandler.ApproveProof)
	register(http.MethodPost, "/proofs/:proofId/reject", offerHandler.RejectProof)
	register(http.MethodPost, "/offers/:id/escrow", offerHandler.CreateEscrow)
	register(http.MethodGet, "/conversations", convHandler.List)
	register(http.MethodGet, "/conversations/:id/messages", convHandler.ListMessages)
	register(http.MethodGet, "/notifications", notifHandler.List)
	register(http.MethodPost, "/notifications/read", notifHandler.MarkAllRead)
	register(http.MethodGet, "/ws", wsHandler.Serve)

	return &Server{e: e, bus: bus, hub: hub}, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown stops accepting requests, then closes the bus so buffered events
// drain into the hub before exit.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.bus.Close()
	return err
}
