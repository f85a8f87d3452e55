package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hw-scorer/api/internal/clip"
	"hw-scorer/api/internal/clip/hub"
	"hw-scorer/api/internal/config"
	"hw-scorer/api/internal/feedback/gemini"
	"hw-scorer/api/internal/handle"
	"hw-scorer/api/internal/logging"
	"hw-scorer/api/internal/store"
)

const purgeAfter = 30 * 24 * time.Hour

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	// --- Model loader: primary, then fallback, then give up ---
	loadCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	eng, err := clip.Load(loadCtx, func(modelID string) clip.Engine {
		return hub.New(cfg.HubURL, cfg.HubToken, modelID)
	}, cfg.PrimaryModel, cfg.FallbackModel)
	cancel()
	if err != nil {
		log.Fatal("no scoring model available", zap.Error(err))
	}
	log.Info("model loaded", zap.String("model", eng.ModelID()))

	// --- Optional Postgres audit log ---
	var scores *store.ScoreRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("sql.Open", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Fatal("db.Ping", zap.Error(err))
		}
		scores = store.NewScoreRepo(db)
		log.Info("score audit log enabled")
		go purgeLoop(scores, log)
	}

	// --- Optional Gemini feedback enricher ---
	var enricher *gemini.Enricher
	if cfg.GeminiAPIKey != "" {
		enricher = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		log.Info("feedback enricher enabled", zap.String("model", cfg.GeminiModel))
	}

	h := handle.New(eng, enricher, scores, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/score", h.Score)

	addr := "0.0.0.0:" + cfg.Port
	log.Info("scoring service listening", zap.String("addr", addr), zap.String("model", eng.ModelID()))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func purgeLoop(scores *store.ScoreRepo, log *zap.Logger) {
	t := time.NewTicker(6 * time.Hour)
	defer t.Stop()
	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := scores.PurgeOlderThan(ctx, purgeAfter)
		cancel()
		if err != nil {
			log.Warn("score audit purge failed", zap.Error(err))
			continue
		}
		if n > 0 {
			log.Info("score audit purged", zap.Int64("rows", n))
		}
	}
}
