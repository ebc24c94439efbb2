package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/authgate/apiserver/config"
	"github.com/authgate/apiserver/internal/db"
	"github.com/authgate/apiserver/internal/mq"
	"github.com/authgate/apiserver/internal/services"
	"github.com/authgate/apiserver/internal/storage"
	"github.com/authgate/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server, router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	log        logrus.FieldLogger
}

// New connects the store and optional broker and object storage, then builds
// the router.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	authOpts := []services.AuthOption{services.WithLogger(log)}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	if broker != nil {
		authOpts = append(authOpts, services.WithEventPublisher(mq.NewUserEvents(broker, cfg.MQ.EventsChannel)))
		log.WithField("backend", cfg.MQ.Backend).Info("publishing registration events")
	}

	closeAll := func() {
		if broker != nil {
			_ = broker.Close()
		}
		_ = dbConn.Close()
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("open object storage: %w", err)
	}
	var secretObjects services.SecretObjects
	if objects != nil {
		secretObjects = objects
	}
	secretService := services.NewSecretService(secretObjects, cfg.Storage.SecretKey)
	if err := secretService.Seed(ctx); err != nil {
		closeAll()
		return nil, fmt.Errorf("seed secret: %w", err)
	}

	router := NewRouter(RouterDeps{
		Auth:           services.NewAuthService(userRepo, authOpts...),
		Secrets:        secretService,
		Readiness:      userRepo,
		Log:            log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
