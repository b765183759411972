package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vmelnikov/filedrop/internal/accounts"
	"github.com/vmelnikov/filedrop/internal/checkout"
	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/files"
	"github.com/vmelnikov/filedrop/internal/logging"
)

// bannerTTL is how long a reconciliation result stays visible on /store.
const bannerTTL = 5 * time.Second

// Server is the HTTP gateway that serves download links, the store page
// with payment redirect reconciliation, and a small JSON API.
type Server struct {
	addr     string
	log      logging.Logger
	files    *files.Service
	accounts *accounts.Service
	checkout *checkout.Service
	router   *chi.Mux

	mu          sync.Mutex
	banner      *checkout.Result
	bannerUntil time.Time
}

func NewServer(addr string, log logging.Logger, fileSvc *files.Service, accountSvc *accounts.Service, checkoutSvc *checkout.Service) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		log:      log,
		files:    fileSvc,
		accounts: accountSvc,
		checkout: checkoutSvc,
		router:   r,
	}
	r.Get("/download/{fileID}", s.handleDownload)
	r.Get("/store", s.handleStore)
	r.Route("/api", func(r chi.Router) {
		r.Post("/checkout", s.handleCheckout)
		r.Get("/files", s.handleListFiles)
		r.Get("/users/me", s.handleCurrentUser)
	})
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(shutdownCtx, "gateway shutdown error", "err", err)
		}
	}()

	s.log.Info(ctx, "gateway listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway listen: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error(context.Background(), "gateway handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) setBanner(r *checkout.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = r
	s.bannerUntil = time.Now().Add(bannerTTL)
}

// takeBanner returns the last reconciliation result if it has not expired.
// The banner is shown once and cleared.
func (s *Server) takeBanner() *checkout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.banner == nil || time.Now().After(s.bannerUntil) {
		s.banner = nil
		return nil
	}
	b := s.banner
	s.banner = nil
	return b
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrUserNotFound)
}
