package handle

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"hw-scorer/api/internal/clip"
	"hw-scorer/api/internal/feedback/gemini"
	"hw-scorer/api/internal/store"
)

type Handle struct {
	eng      clip.Engine
	enricher *gemini.Enricher // nil when GEMINI_API_KEY is not set
	scores   *store.ScoreRepo // nil when DATABASE_URL is not set
	log      *zap.Logger
}

func New(eng clip.Engine, enricher *gemini.Enricher, scores *store.ScoreRepo, log *zap.Logger) *Handle {
	return &Handle{
		eng:      eng,
		enricher: enricher,
		scores:   scores,
		log:      log,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
