package review

import (
	"context"
	"strings"

	"github.com/menta2k/yolo-auditor/pkg/client"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks the model to judge drawn annotation boxes
const DefaultPrompt = `You are reviewing object detection annotations.

The image shows colored rectangles drawn over a photograph. Each rectangle is
a labelled object; the caption above it names the class.

Return JSON only:
{
  "verdict": "ok",
  "confidence": 0.0,
  "notes": "short neutral sentence (≤ 25 words)",
  "issues": ["issue1", "issue2"]
}

HARD RULES
- verdict is "ok" when every rectangle tightly covers a visible object and no obvious object is left unboxed.
- verdict is "suspect" when a rectangle is misplaced, far too loose, covers nothing, or an obvious object has no rectangle.
- verdict is "unclear" when the image is too dark, blurred, or small to judge.
- confidence is in [0,1].
- issues: lowercase, concise, at most 5 entries, empty when verdict is "ok".
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const maxIssues = 5

// Reviewer asks a vision model to judge spot-check overlays
type Reviewer struct {
	client client.VisionClient
	prompt string
}

// NewReviewer creates a new reviewer with a vision client
func NewReviewer(client client.VisionClient) *Reviewer {
	return &Reviewer{client: client, prompt: DefaultPrompt}
}

// WithPrompt returns a copy of the reviewer using prompt
func (r *Reviewer) WithPrompt(prompt string) *Reviewer {
	cp := *r
	cp.prompt = prompt
	return &cp
}

// Review judges one overlay image. Transport failures and unusable model
// output both come back as an "unclear" result so a spot check never aborts
// on the reviewer.
func (r *Reviewer) Review(ctx context.Context, model, imageB64 string) types.ReviewResult {
	res, err := r.client.ReviewOverlay(ctx, model, r.prompt, imageB64)
	if err != nil {
		return types.ReviewResult{
			Verdict: "unclear",
			Notes:   "review failed: " + err.Error(),
			Issues:  []string{},
		}
	}
	if res == nil {
		return types.ReviewResult{Verdict: "unclear", Notes: "empty review", Issues: []string{}}
	}
	return normalize(*res)
}

// TestVision tests if the model can actually see the image with a simple prompt
func (r *Reviewer) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return r.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

func normalize(res types.ReviewResult) types.ReviewResult {
	res.Verdict = strings.ToLower(strings.TrimSpace(res.Verdict))
	switch res.Verdict {
	case "ok", "suspect", "unclear":
	default:
		res.Verdict = "unclear"
	}
	res.Confidence = clamp(res.Confidence, 0, 1)
	res.Issues = normalizeIssues(res.Issues)

	// A model that reports problems but says "ok" is not trusted either way
	if res.Verdict == "ok" && len(res.Issues) > 0 {
		res.Verdict = "suspect"
	}
	return res
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeIssues cleans, deduplicates and limits issue strings
func normalizeIssues(issues []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, maxIssues)
	for _, s := range issues {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == maxIssues {
			break
		}
	}
	return out
}
