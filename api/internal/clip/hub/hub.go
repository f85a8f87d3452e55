// Package hub talks to the model-hosting runtime that keeps CLIP-family
// models resident and exposes their forward pass over REST.
package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Engine struct {
	BaseURL string
	Token   string
	Model   string
	httpc   *http.Client
}

func New(baseURL, token, model string) *Engine {
	return &Engine{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   strings.TrimSpace(token),
		Model:   strings.TrimSpace(model),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "hub" }

func (e *Engine) ModelID() string { return e.Model }

// Ready reports whether the model is resident on the hub. Used by the
// loader to decide between the primary and fallback model.
func (e *Engine) Ready(ctx context.Context) error {
	u := e.modelURL("ready")
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	e.auth(req)
	resp, err := e.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hub ready %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}
	return nil
}

func (e *Engine) LogitsPerImage(ctx context.Context, image []byte, prompts []string) ([]float64, error) {
	body := map[string]any{
		"image_b64": base64.StdEncoding.EncodeToString(image),
		"texts":     prompts,
	}
	var out struct {
		LogitsPerImage [][]float64 `json:"logits_per_image"`
	}
	if err := e.post(ctx, e.modelURL("logits_per_image"), body, &out); err != nil {
		return nil, err
	}
	if len(out.LogitsPerImage) != 1 {
		return nil, fmt.Errorf("hub logits: expected 1 image row, got %d", len(out.LogitsPerImage))
	}
	return out.LogitsPerImage[0], nil
}

func (e *Engine) Embeddings(ctx context.Context, image []byte, prompt string) ([]float64, []float64, error) {
	body := map[string]any{
		"image_b64": base64.StdEncoding.EncodeToString(image),
		"texts":     []string{prompt},
	}
	var out struct {
		ImageEmbeds [][]float64 `json:"image_embeds"`
		TextEmbeds  [][]float64 `json:"text_embeds"`
	}
	if err := e.post(ctx, e.modelURL("embeddings"), body, &out); err != nil {
		return nil, nil, err
	}
	if len(out.ImageEmbeds) != 1 || len(out.TextEmbeds) != 1 {
		return nil, nil, fmt.Errorf("hub embeddings: expected 1 image and 1 text row, got %d/%d",
			len(out.ImageEmbeds), len(out.TextEmbeds))
	}
	return out.ImageEmbeds[0], out.TextEmbeds[0], nil
}

func (e *Engine) modelURL(op string) string {
	return e.BaseURL + "/v1/models/" + url.PathEscape(e.Model) + "/" + op
}

func (e *Engine) post(ctx context.Context, u string, body map[string]any, out any) error {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	e.auth(req)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hub %s %d: %s", u, resp.StatusCode, strings.TrimSpace(string(x)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (e *Engine) auth(req *http.Request) {
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}
}
