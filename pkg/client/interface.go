package client

import (
	"context"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// VisionClient sends an image plus a prompt to a vision-capable model.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	ReviewOverlay(ctx context.Context, model, prompt, imgB64 string) (*types.ReviewResult, error)
}
