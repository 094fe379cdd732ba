package models

import "fmt"

// ImageOptions is the provider option bag for image generation. All fields
// are optional; any non-default field bypasses the result cache.
type ImageOptions struct {
	AspectRatio       string   `json:"aspect_ratio,omitempty"`
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
	GuidanceScale     *float64 `json:"guidance_scale,omitempty"`
	SafetyFilterLevel string   `json:"safety_filter_level,omitempty"`
	AddWatermark      *bool    `json:"add_watermark,omitempty"`
	Language          string   `json:"language,omitempty"`
}

// VideoOptions is the provider option bag for video generation.
type VideoOptions struct {
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	DurationSeconds *int   `json:"duration_seconds,omitempty"`
	NegativePrompt  string `json:"negative_prompt,omitempty"`
	Seed            *int64 `json:"seed,omitempty"`
	GenerateAudio   *bool  `json:"generate_audio,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
}

var imageAspectRatios = map[string]bool{
	"1:1": true, "3:4": true, "4:3": true, "16:9": true, "9:16": true,
}

var safetyFilterLevels = map[string]bool{
	"block_low_and_above":    true,
	"block_medium_and_above": true,
	"block_only_high":        true,
}

var imageLanguages = map[string]bool{
	"auto": true, "en": true, "ko": true, "ja": true, "zh": true,
	"zh-CN": true, "zh-TW": true, "hi": true, "pt": true, "es": true,
}

var videoAspectRatios = map[string]bool{"16:9": true, "9:16": true}

var videoResolutions = map[string]bool{"720p": true, "1080p": true}

// IsZero reports whether no option has been set. Only a fully-default bag
// is eligible for cache lookup.
func (o *ImageOptions) IsZero() bool {
	return o.AspectRatio == "" && o.NegativePrompt == "" && o.Seed == nil &&
		o.GuidanceScale == nil && o.SafetyFilterLevel == "" &&
		o.AddWatermark == nil && o.Language == ""
}

// Validate checks field domains and cross-field constraints.
func (o *ImageOptions) Validate() error {
	if o.AspectRatio != "" && !imageAspectRatios[o.AspectRatio] {
		return fmt.Errorf("aspect_ratio must be one of 1:1, 3:4, 4:3, 16:9, 9:16")
	}
	if o.Seed != nil && (*o.Seed < 1 || *o.Seed > 1<<31-1) {
		return fmt.Errorf("seed must be between 1 and 2147483647")
	}
	if o.GuidanceScale != nil && (*o.GuidanceScale < 0 || *o.GuidanceScale > 100) {
		return fmt.Errorf("guidance_scale must be between 0 and 100")
	}
	if o.SafetyFilterLevel != "" && !safetyFilterLevels[o.SafetyFilterLevel] {
		return fmt.Errorf("safety_filter_level must be one of block_low_and_above, block_medium_and_above, block_only_high")
	}
	if o.Language != "" && !imageLanguages[o.Language] {
		return fmt.Errorf("language %q is not supported", o.Language)
	}
	// Watermarking is incompatible with deterministic seeds at the provider.
	if o.Seed != nil && (o.AddWatermark == nil || *o.AddWatermark) {
		return fmt.Errorf("add_watermark must be false when seed is set")
	}
	return nil
}

// IsZero reports whether no option has been set.
func (o *VideoOptions) IsZero() bool {
	return o.AspectRatio == "" && o.DurationSeconds == nil && o.NegativePrompt == "" &&
		o.Seed == nil && o.GenerateAudio == nil && o.Resolution == ""
}

// Validate checks field domains.
func (o *VideoOptions) Validate() error {
	if o.AspectRatio != "" && !videoAspectRatios[o.AspectRatio] {
		return fmt.Errorf("aspect_ratio must be 16:9 or 9:16")
	}
	if o.DurationSeconds != nil {
		switch *o.DurationSeconds {
		case 4, 6, 8:
		default:
			return fmt.Errorf("duration_seconds must be 4, 6 or 8")
		}
	}
	if o.Seed != nil && (*o.Seed < 0 || *o.Seed > 1<<32-1) {
		return fmt.Errorf("seed must be between 0 and 4294967295")
	}
	if o.Resolution != "" && !videoResolutions[o.Resolution] {
		return fmt.Errorf("resolution must be 720p or 1080p")
	}
	return nil
}
