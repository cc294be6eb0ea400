package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/engine"
	"github.com/homescout-au/suburbscore/internal/model"
	"github.com/homescout-au/suburbscore/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.engine, env.store)
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
		go checker.Run(ctx)

		router := newRouter(env, collector)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *env, collector *monitoring.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		version, _ := env.engine.CacheStats()
		writeJSON(w, http.StatusOK, map[string]string{
			"status":           "ok",
			"snapshot_version": version,
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/areas/{id}/safety", func(w http.ResponseWriter, req *http.Request) {
			rating, err := env.engine.ScoreSafety(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rating)
		})

		r.Get("/areas/{id}/investment", func(w http.ResponseWriter, req *http.Request) {
			index, err := env.engine.ScoreCombined(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, index)
		})

		r.Get("/convenience", func(w http.ResponseWriter, req *http.Request) {
			lat, errLat := strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
			lng, errLng := strconv.ParseFloat(req.URL.Query().Get("lng"), 64)
			if errLat != nil || errLng != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lng query parameters are required"})
				return
			}
			conv, err := env.engine.ScoreConvenience(req.Context(), lat, lng)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, conv)
		})

		r.Post("/batch", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				AreaIDs []string `json:"area_ids"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(body.AreaIDs) == 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "area_ids is required"})
				return
			}
			ratings, err := env.engine.ScoreBatch(req.Context(), body.AreaIDs)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ratings": ratings})
		})

		r.Post("/reload", func(w http.ResponseWriter, req *http.Request) {
			input, err := snapshotInput(req.Context(), env.store)
			if err != nil {
				writeError(w, err)
				return
			}
			snap, err := engine.BuildSnapshot(input)
			if err != nil {
				writeError(w, err)
				return
			}
			env.engine.Swap(snap)
			writeJSON(w, http.StatusOK, map[string]string{
				"status":           "reloaded",
				"snapshot_version": snap.Version,
			})
		})
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, model.ErrUnknownArea):
		status = http.StatusNotFound
	case eris.Is(err, model.ErrOutOfRange):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": eris.Cause(err).Error()})
}
