// Package server exposes the gateway over HTTP. This is the only process
// that holds the marketplace credential; clients get normalized records and
// resolved transactions, never the key.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
)

// Server is the HTTP gateway.
type Server struct {
	svc      *gateway.Service
	resolver *fulfill.Resolver
	router   *mux.Router
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer wires the routes.
func NewServer(svc *gateway.Service, resolver *fulfill.Resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:      svc,
		resolver: resolver,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.logRequests)

	api.HandleFunc("/collections/{slug}/floor", s.handleFloor).Methods("GET")

	api.HandleFunc("/nfts/{contract}/{token}", s.handleNFT).Methods("GET")
	api.HandleFunc("/nfts/{contract}/{token}/best-offer", s.handleBestOffer).Methods("GET")
	api.HandleFunc("/nfts/{contract}/{token}/offers", s.handleOffers).Methods("GET")
	api.HandleFunc("/nfts/{contract}/{token}/listings", s.handleListings).Methods("GET")
	api.HandleFunc("/nfts/{contract}/{token}/sales", s.handleSales).Methods("GET")
	api.HandleFunc("/nfts/{contract}/{token}/history", s.handleHistory).Methods("GET")

	api.HandleFunc("/accounts/{address}/nfts", s.handleAccountNFTs).Methods("GET")

	api.HandleFunc("/orders/listing", s.handleCreateListing).Methods("POST")
	api.HandleFunc("/orders/fulfill", s.handleFulfill).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancel).Methods("POST")
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the context ends, then drains connections.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", "addr", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
