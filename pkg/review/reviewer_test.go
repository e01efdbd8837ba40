package review

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/menta2k/yolo-auditor/pkg/ollama"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

type fakeClient struct {
	raw    string
	err    error
	prompt string
}

func (f *fakeClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	f.prompt = prompt
	return "a fundus photograph", f.err
}

func (f *fakeClient) ReviewOverlay(ctx context.Context, model, prompt, imgB64 string) (*types.ReviewResult, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return ollama.ParseReviewResult(f.raw), nil
}

func TestReview(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantVerdict string
		wantIssues  []string
	}{
		{
			name:        "clean ok",
			raw:         `{"verdict":"ok","confidence":0.9,"notes":"boxes fit","issues":[]}`,
			wantVerdict: "ok",
			wantIssues:  []string{},
		},
		{
			name:        "fenced with trailing comma",
			raw:         "```json\n{\"verdict\":\"Suspect\",\"confidence\":0.7,\"issues\":[\"Box Too Loose\",\"box too loose\",],}\n```",
			wantVerdict: "suspect",
			wantIssues:  []string{"box too loose"},
		},
		{
			name:        "ok with issues downgraded",
			raw:         `{"verdict":"ok","confidence":0.5,"issues":["missed lesion"]}`,
			wantVerdict: "suspect",
			wantIssues:  []string{"missed lesion"},
		},
		{
			name:        "unknown verdict",
			raw:         `{"verdict":"maybe","confidence":3}`,
			wantVerdict: "unclear",
			wantIssues:  []string{},
		},
		{
			name:        "prose",
			raw:         "The boxes look fine to me.",
			wantVerdict: "unclear",
			wantIssues:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{raw: tt.raw}
			got := NewReviewer(fc).Review(context.Background(), "m", "aW1n")
			if got.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %q, want %q", got.Verdict, tt.wantVerdict)
			}
			if !reflect.DeepEqual(got.Issues, tt.wantIssues) {
				t.Errorf("issues = %#v, want %#v", got.Issues, tt.wantIssues)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("confidence out of range: %v", got.Confidence)
			}
			if fc.prompt != DefaultPrompt {
				t.Error("default prompt not sent")
			}
		})
	}
}

func TestReview_ClientError(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	got := NewReviewer(fc).Review(context.Background(), "m", "aW1n")
	if got.Verdict != "unclear" {
		t.Errorf("verdict = %q, want unclear", got.Verdict)
	}
	if got.Notes == "" {
		t.Error("expected failure note")
	}
}

func TestWithPrompt(t *testing.T) {
	fc := &fakeClient{raw: `{"verdict":"ok"}`}
	base := NewReviewer(fc)
	custom := base.WithPrompt("custom")
	custom.Review(context.Background(), "m", "aW1n")
	if fc.prompt != "custom" {
		t.Errorf("prompt = %q", fc.prompt)
	}
	if base.prompt != DefaultPrompt {
		t.Error("WithPrompt modified the original reviewer")
	}
}

func TestNormalizeIssues_Limit(t *testing.T) {
	got := normalizeIssues([]string{"a", "b", " ", "c", "d", "e", "f", "g"})
	if len(got) != maxIssues {
		t.Errorf("len = %d, want %d", len(got), maxIssues)
	}
}
