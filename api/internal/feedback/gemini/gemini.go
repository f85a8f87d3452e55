// Package gemini turns a raw score into one short, kid-friendly remark.
// It only ever decorates the feedback string; the score itself never
// passes through the language model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hw-scorer/api/internal/util"
)

type Enricher struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Enricher {
	return &Enricher{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

// Remark produces one encouraging sentence about the attempt. Callers
// must treat any error as "no remark".
func (e *Enricher) Remark(ctx context.Context, image []byte, target string, score float64) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(`You see a child's handwritten attempt at an Arabic letter or word.
Write EXACTLY ONE short encouraging sentence (max 20 words) about the attempt.
Do not mention scores, numbers, models or grading. Plain text, no markdown.`),
		},
	}

	parts := []genai.Part{
		genai.Text(fmt.Sprintf("Target text: %q. Similarity score: %.2f out of 100.", target, score)),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(image), Data: image},
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("gemini: non-text response")
	}
	return strings.TrimSpace(string(txt)), nil
}

func ptrFloat32(v float32) *float32 { return &v }
