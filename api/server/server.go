// Package server serves the dashboard: it stages one image, triggers its analysis
// and renders the overview, details and insights views as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sozercan/image-verdict/api/models"
	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/config"
	"github.com/sozercan/image-verdict/internal/presenter"
	"github.com/sozercan/image-verdict/internal/store"
	"github.com/sozercan/image-verdict/internal/upload"
)

const imageField = "image"

type Server struct {
	cfg        config.DashboardConfig
	router     *chi.Mux
	controller *upload.Controller
	results    *store.ResultStore
	tabs       *presenter.TabSelection

	// ctx outlives individual requests so analyses keep running after 202 is sent
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg config.Config, controller *upload.Controller, results *store.ResultStore) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg.Dashboard,
		router:     chi.NewRouter(),
		controller: controller,
		results:    results,
		tabs:       presenter.NewTabSelection(),
		ctx:        ctx,
		cancel:     cancel,
	}

	controller.Subscribe(func(snap upload.Snapshot) {
		slog.Debug("Upload state changed", "state", snap.State, "generation", snap.Generation, "error", snap.Error)
	})

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Put("/image", s.handleStage)
		r.Delete("/image", s.handleRemove)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/views", s.handleViews)
		r.Get("/views/{tab}", s.handleView)
		r.Put("/tab", s.handleSelectTab)
	})
	s.router.Handle("/metrics", promhttp.Handler())

	// Serve static files
	if s.cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.cfg.StaticDir))
		s.router.Handle("/*", fs)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) state() models.StateResponse {
	return models.NewStateResponse(s.controller.Snapshot(), s.tabs.Active(), s.results.Version())
}

func (s *Server) views() presenter.Views {
	snap := s.controller.Snapshot()
	result, _ := s.results.Load()
	return presenter.Present(presenter.Input{
		ImagePresent: snap.Image != nil,
		Result:       result,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	defer r.Body.Close()

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "image is required", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image", err.Error())
		return
	}

	accepted := s.controller.Stage(upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if !accepted {
		slog.Info("Ignoring file that is not an image", "filename", header.Filename)
	}
	writeJSON(w, http.StatusOK, models.StageResponse{Accepted: accepted, State: s.state()})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if !s.controller.RemoveUnlessAnalyzing() {
		writeError(w, http.StatusConflict, "analysis in progress", "")
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.controller.Analyze(s.ctx) {
		writeError(w, http.StatusConflict, "analysis cannot start", fmt.Sprintf("state is %s", s.controller.Snapshot().State))
		return
	}
	writeJSON(w, http.StatusAccepted, s.state())
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ViewsResponse{
		ActiveTab: s.tabs.Active(),
		Tabs:      presenter.Tabs,
		Views:     s.views(),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id, err := presenter.ParseTabID(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	view, err := s.views().View(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var req models.SelectTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := s.tabs.Select(presenter.TabID(req.Tab)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    s.cfg.Host + ":" + s.cfg.Port,
		Handler: s.router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Starting dashboard", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		s.cancel()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("Starting shutdown", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		s.cancel()
		s.controller.Wait()
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, apimodels.ErrorResponse{
		Error:     message,
		Detail:    detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
