package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/korjavin/docquizbot/logger"
	"github.com/korjavin/docquizbot/quiz"
)

// StatsSource reports engine state.
type StatsSource interface {
	Stats() quiz.Stats
}

// Pinger checks a dependency.
type Pinger interface {
	Ping() error
}

// Routes exposes /healthz and /stats.
func Routes(stats StatsSource, db Pinger) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if db != nil {
			if err := db.Ping(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, stats.Stats())
	})
	return r
}

// Serve runs the health server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, log *logger.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Health server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
