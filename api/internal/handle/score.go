package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"hw-scorer/api/internal/clip"
	"hw-scorer/api/internal/metrics"
	"hw-scorer/api/internal/store"
	"hw-scorer/api/internal/util"
)

// cacheMaxAge bounds replay of previously issued scores from the audit
// log. Inference is deterministic, so a hit is byte-for-byte what the
// model would produce anyway.
const cacheMaxAge = 24 * time.Hour

type ScoreRequest struct {
	ImageB64   string `json:"image_base64"`
	TargetText string `json:"target_text"`
}

type ScoreResponse struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Score handles POST /score: base64 image + target text in, 0–100
// similarity score out. Every failure inside the pipeline — bad JSON,
// bad base64, unparseable image, model error — comes back as a uniform
// 500 {"detail": ...}; callers cannot tell the categories apart, only
// the logs and metrics can.
func (h *Handle) Score(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "POST only"})
		return
	}
	start := time.Now()
	defer func() { metrics.ScoreDuration.Observe(time.Since(start).Seconds()) }()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "decode", fmt.Errorf("bad json: %w", err))
		return
	}

	img, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil {
		h.fail(w, "decode", fmt.Errorf("bad image_base64: %w", err))
		return
	}
	if _, _, err := image.Decode(bytes.NewReader(img)); err != nil {
		h.fail(w, "decode", fmt.Errorf("cannot decode image: %w", err))
		return
	}

	imageHash := util.SHA256Hex(img)
	if row := h.cached(r.Context(), imageHash, req.TargetText); row != nil {
		h.respond(r.Context(), w, img, req.TargetText, row.Score)
		return
	}

	prompts := clip.Prompts(req.TargetText)
	score, err := clip.Score(r.Context(), h.eng, img, prompts)
	if err != nil {
		h.fail(w, "inference", err)
		return
	}

	h.record(imageHash, req.TargetText, score)
	h.respond(r.Context(), w, img, req.TargetText, score)
}

func (h *Handle) respond(ctx context.Context, w http.ResponseWriter, img []byte, target string, score float64) {
	feedback := fmt.Sprintf("Scored using %s. Probability match: %s%%",
		h.eng.ModelID(), strconv.FormatFloat(score, 'f', -1, 64))

	if h.enricher != nil {
		if extra, err := h.enricher.Remark(ctx, img, target, score); err != nil {
			h.log.Warn("feedback enricher failed", zap.Error(err))
		} else if extra != "" {
			feedback += " " + extra
		}
	}

	metrics.ScoreRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, ScoreResponse{Score: score, Feedback: feedback})
}

func (h *Handle) cached(ctx context.Context, imageHash, target string) *store.ScoreRow {
	if h.scores == nil {
		return nil
	}
	row, err := h.scores.FindByHash(ctx, imageHash, h.eng.ModelID(), target, cacheMaxAge)
	if err != nil {
		if err != store.ErrNotFound {
			h.log.Warn("score cache lookup failed", zap.Error(err))
		}
		return nil
	}
	return row
}

// record writes the audit row off the request path; losing it must
// never fail the request.
func (h *Handle) record(imageHash, target string, score float64) {
	if h.scores == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.scores.Insert(ctx, imageHash, h.eng.ModelID(), target, score); err != nil {
			h.log.Warn("score audit insert failed", zap.Error(err))
		}
	}()
}

func (h *Handle) fail(w http.ResponseWriter, stage string, err error) {
	h.log.Error("score request failed",
		zap.String("stage", stage),
		zap.Error(err),
		zap.Stack("stack"),
	)
	metrics.ScoreFailures.WithLabelValues(stage).Inc()
	metrics.ScoreRequests.WithLabelValues("error").Inc()
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
}
