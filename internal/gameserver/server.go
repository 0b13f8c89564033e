package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chronicleweave/weave/internal/config"
)

// Server exposes the websocket endpoint plus health and static routes. It
// implements the lifecycle Service interface.
type Server struct {
	httpServer   *http.Server
	upgrader     websocket.Upgrader
	handler      *Handler
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewServer creates the HTTP server for the given handler.
//
// Precondition: handler and logger must be non-nil.
func NewServer(cfg config.ServerConfig, handler *Handler, logger *zap.Logger) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler:      handler,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/{user_id}", s.handleWS)
	if cfg.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: mux,
	}
	return s
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("game server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			zap.String("user", userID),
			zap.Error(err),
		)
		return
	}

	ch := NewWSChannel(conn, s.writeTimeout)
	s.handler.Run(r.Context(), userID, ch)
}
