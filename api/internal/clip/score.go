package clip

import (
	"context"
	"fmt"
	"math"
)

// Fixed negative prompts. The positive prompt is always index 0; the
// score below is the softmax mass on that index, so changing the set or
// its order changes every score the service ever returned.
const (
	NegativeScribble = "خربشة" // scribble / bad writing
	NegativeEmpty    = "فارغ"  // empty
)

// Prompts builds the ordered prompt set for one scoring request:
// [target, scribble, empty].
func Prompts(target string) []string {
	return []string{target, NegativeScribble, NegativeEmpty}
}

// Score runs the scoring pipeline for a single image against the given
// prompt set: per-prompt logits -> softmax -> probability of prompt 0,
// scaled to 0–100 and rounded to 2 decimal places.
//
// With a single prompt softmax is trivially 1.0, so the score degrades
// to plain cosine similarity between the L2-normalized image and text
// embeddings, scaled the same way.
func Score(ctx context.Context, eng Engine, image []byte, prompts []string) (float64, error) {
	if len(prompts) == 0 {
		return 0, fmt.Errorf("empty prompt set")
	}

	if len(prompts) == 1 {
		img, txt, err := eng.Embeddings(ctx, image, prompts[0])
		if err != nil {
			return 0, err
		}
		cos, err := Cosine(img, txt)
		if err != nil {
			return 0, err
		}
		return Round2(cos * 100), nil
	}

	logits, err := eng.LogitsPerImage(ctx, image, prompts)
	if err != nil {
		return 0, err
	}
	if len(logits) != len(prompts) {
		return 0, fmt.Errorf("model returned %d logits for %d prompts", len(logits), len(prompts))
	}

	probs := Softmax(logits)
	return Round2(probs[0] * 100), nil
}

// Softmax converts logits into a probability distribution summing to 1.
// Shifted by the max logit so large logits do not overflow.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	exps := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		exps[i] = math.Exp(v - max)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// Cosine returns the cosine similarity of two vectors.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors have different dimensions: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty embedding")
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("zero-norm embedding")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Round2 rounds to exactly 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
