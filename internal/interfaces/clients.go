package interfaces

import (
	"context"

	"github.com/kimhyeog/forge/internal/models"
)

// GeneratorClient is the remote call adapter onto the generative provider.
// Implementations own retry, backoff, permit acquisition and safety
// translation; callers see only the final artifact bytes or a terminal error.
type GeneratorClient interface {
	// GenerateImage submits a synchronous image request and returns PNG bytes.
	GenerateImage(ctx context.Context, prompt, model string, opts *models.ImageOptions) ([]byte, error)
	// GenerateVideo runs the start-and-poll protocol and returns MP4 bytes.
	// imageBytes and mimeType are set for image-to-video, nil otherwise.
	GenerateVideo(ctx context.Context, prompt, model string, imageBytes []byte, mimeType string, opts *models.VideoOptions) ([]byte, error)
	// PermitState reports (inUse, capacity) for a modality's semaphore.
	PermitState(modality string) (int, int)
}
