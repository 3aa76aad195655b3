// Package server отдает результаты прогонов и скриншоты по HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"uiRunner/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository - чтение результатов, которое нужно серверу.
type Repository interface {
	ListRuns(ctx context.Context, limit, offset int) ([]database.TestRun, error)
	GetRun(ctx context.Context, id string) (*database.TestRun, error)
	ListResults(ctx context.Context, runID string) ([]database.TestResult, error)
}

type Server struct {
	addr           string
	screenshotsDir string
	log            *zap.Logger
	repo           Repository
}

func New(addr, screenshotsDir string, log *zap.Logger, repo Repository) *Server {
	return &Server{
		addr:           addr,
		screenshotsDir: screenshotsDir,
		log:            log,
		repo:           repo,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Простейший лог-мидлвар
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.log.Info("HTTP",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/results", s.handleListResults)
	})

	// Скриншоты упавших тестов
	r.Handle("/artifacts/*", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.screenshotsDir))))

	return r
}

// Run блокируется до отмены ctx, затем останавливает сервер.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("Сервер остановлен")
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	runs, err := s.repo.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("db list runs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	if _, err := s.repo.GetRun(r.Context(), id); err != nil {
		s.writeRepoError(w, err)
		return
	}
	results, err := s.repo.ListResults(r.Context(), id)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.log.Error("db error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
}

func runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
