// Package vertex is the remote call adapter onto Vertex AI media generation.
// It owns the per-modality concurrency permits, the retry/backoff tier, the
// long-running-operation protocol for video, and safety translation.
package vertex

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
)

// Modality tags for permit introspection.
const (
	ModalityImage = "image"
	ModalityVideo = "video"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Provider rate limits: image 60/min, video 10/min. The permits bound
// concurrency; the limiters smooth request starts under that bound.
const (
	imageRequestsPerMinute = 60
	videoRequestsPerMinute = 10
)

// Client implements interfaces.GeneratorClient against Vertex AI.
type Client struct {
	genai      *genai.Client
	httpClient *http.Client
	project    string
	region     string
	baseURL    string

	imagePermit  *Permit
	videoPermit  *Permit
	imageLimiter *rate.Limiter
	videoLimiter *rate.Limiter

	loadTest bool
	logger   *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPermits overrides the per-modality concurrency caps.
func WithPermits(image, video int) ClientOption {
	return func(c *Client) {
		c.imagePermit = NewPermit(image)
		c.videoPermit = NewPermit(video)
	}
}

// WithBaseURL overrides the Vertex API base URL (used by tests).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client used for the LRO protocol.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Vertex AI client. In load-test mode no Google
// credentials are required and all calls return mock artifacts.
func NewClient(ctx context.Context, cfg common.VertexConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{
		project:      cfg.Project,
		region:       cfg.Region,
		loadTest:     cfg.LoadTestMode,
		imagePermit:  NewPermit(10),
		videoPermit:  NewPermit(3),
		imageLimiter: rate.NewLimiter(rate.Every(time.Minute/imageRequestsPerMinute), imageRequestsPerMinute),
		videoLimiter: rate.NewLimiter(rate.Every(time.Minute/videoRequestsPerMinute), videoRequestsPerMinute),
		logger:       common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		c.baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Region)
	}

	if c.loadTest {
		c.logger.Info().Msg("Vertex client running in load-test mode, returning mock artifacts")
		return c, nil
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex genai client: %w", err)
	}
	c.genai = genaiClient

	if c.httpClient == nil {
		// Application default credentials; GOOGLE_APPLICATION_CREDENTIALS is
		// honoured by the default token source.
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Google credentials: %w", err)
		}
		c.httpClient = oauth2.NewClient(ctx, ts)
	}

	return c, nil
}

// PermitState reports (inUse, capacity) for a modality's semaphore.
func (c *Client) PermitState(modality string) (int, int) {
	switch modality {
	case ModalityVideo:
		return c.videoPermit.InUse(), c.videoPermit.Cap()
	default:
		return c.imagePermit.InUse(), c.imagePermit.Cap()
	}
}

// GenerateImage submits a synchronous image request and returns PNG bytes.
// The image permit is held across all retry attempts.
func (c *Client) GenerateImage(ctx context.Context, prompt, model string, opts *models.ImageOptions) ([]byte, error) {
	if err := c.imagePermit.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.imagePermit.Release()

	if c.loadTest {
		return c.mockArtifact(ctx, mockPNG)
	}

	var out []byte
	err := withRetry(ctx, imageMaxAttempts, imageBackoff, func() error {
		if err := c.imageLimiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.genai.Models.GenerateImages(ctx, model, prompt, imageConfig(opts))
		if err != nil {
			return classifyError(err)
		}

		if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
			reason := "no image returned"
			if len(resp.GeneratedImages) > 0 && resp.GeneratedImages[0].RAIFilteredReason != "" {
				reason = resp.GeneratedImages[0].RAIFilteredReason
			}
			return &SafetyError{Reason: reason}
		}

		out = resp.GeneratedImages[0].Image.ImageBytes
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("model", model).Int("bytes", len(out)).Msg("Image generated")
	return out, nil
}

// imageConfig maps the option bag onto the provider config.
func imageConfig(opts *models.ImageOptions) *genai.GenerateImagesConfig {
	cfg := &genai.GenerateImagesConfig{NumberOfImages: 1}
	if opts == nil {
		return cfg
	}
	cfg.AspectRatio = opts.AspectRatio
	cfg.NegativePrompt = opts.NegativePrompt
	if opts.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*opts.Seed))
	}
	if opts.GuidanceScale != nil {
		cfg.GuidanceScale = genai.Ptr(float32(*opts.GuidanceScale))
	}
	if opts.SafetyFilterLevel != "" {
		cfg.SafetyFilterLevel = genai.SafetyFilterLevel(strings.ToUpper(opts.SafetyFilterLevel))
	}
	if opts.AddWatermark != nil {
		cfg.AddWatermark = *opts.AddWatermark
	}
	if opts.Language != "" {
		cfg.Language = genai.ImagePromptLanguage(opts.Language)
	}
	return cfg
}

// GenerateVideo runs the start-and-poll protocol and returns MP4 bytes.
// imageBytes and mimeType are set for image-to-video submissions.
func (c *Client) GenerateVideo(ctx context.Context, prompt, model string, imageBytes []byte, mimeType string, opts *models.VideoOptions) ([]byte, error) {
	if err := c.videoPermit.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.videoPermit.Release()

	if c.loadTest {
		return c.mockArtifact(ctx, mockMP4)
	}

	if err := c.videoLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	opName, err := c.startVideoOperation(ctx, model, videoRequestBody(prompt, imageBytes, mimeType, opts))
	if err != nil {
		return nil, err
	}

	envelope, err := c.pollVideoOperation(ctx, model, opName)
	if err != nil {
		return nil, err
	}

	data, err := extractVideoBytes(envelope)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("model", model).Str("operation", opName).Int("bytes", len(data)).Msg("Video generated")
	return data, nil
}

// Compile-time check
var _ interfaces.GeneratorClient = (*Client)(nil)
