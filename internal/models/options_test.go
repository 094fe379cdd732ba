package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seedPtr(v int64) *int64      { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestImageOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ImageOptions
		wantErr bool
	}{
		{"empty", ImageOptions{}, false},
		{"valid aspect ratio", ImageOptions{AspectRatio: "16:9"}, false},
		{"invalid aspect ratio", ImageOptions{AspectRatio: "2:1"}, true},
		{"seed requires watermark off", ImageOptions{Seed: seedPtr(42)}, true},
		{"seed with watermark false", ImageOptions{Seed: seedPtr(42), AddWatermark: boolPtr(false)}, false},
		{"seed with watermark true", ImageOptions{Seed: seedPtr(42), AddWatermark: boolPtr(true)}, true},
		{"seed below range", ImageOptions{Seed: seedPtr(0), AddWatermark: boolPtr(false)}, true},
		{"seed above range", ImageOptions{Seed: seedPtr(1 << 31), AddWatermark: boolPtr(false)}, true},
		{"seed at max", ImageOptions{Seed: seedPtr(1<<31 - 1), AddWatermark: boolPtr(false)}, false},
		{"guidance in range", ImageOptions{GuidanceScale: floatPtr(50)}, false},
		{"guidance above range", ImageOptions{GuidanceScale: floatPtr(101)}, true},
		{"guidance negative", ImageOptions{GuidanceScale: floatPtr(-1)}, true},
		{"valid safety level", ImageOptions{SafetyFilterLevel: "block_only_high"}, false},
		{"invalid safety level", ImageOptions{SafetyFilterLevel: "block_everything"}, true},
		{"valid language", ImageOptions{Language: "ko"}, false},
		{"invalid language", ImageOptions{Language: "fr"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVideoOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    VideoOptions
		wantErr bool
	}{
		{"empty", VideoOptions{}, false},
		{"valid", VideoOptions{AspectRatio: "9:16", DurationSeconds: intPtr(8), Resolution: "1080p"}, false},
		{"square not allowed", VideoOptions{AspectRatio: "1:1"}, true},
		{"duration 5 not allowed", VideoOptions{DurationSeconds: intPtr(5)}, true},
		{"seed zero allowed", VideoOptions{Seed: seedPtr(0)}, false},
		{"seed at max", VideoOptions{Seed: seedPtr(1<<32 - 1)}, false},
		{"seed above range", VideoOptions{Seed: seedPtr(1 << 32)}, true},
		{"bad resolution", VideoOptions{Resolution: "480p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestImageOptionsIsZero(t *testing.T) {
	assert.True(t, (&ImageOptions{}).IsZero())
	assert.False(t, (&ImageOptions{Seed: seedPtr(1)}).IsZero())
	assert.False(t, (&ImageOptions{NegativePrompt: "blurry"}).IsZero())
	assert.True(t, (&VideoOptions{}).IsZero())
	assert.False(t, (&VideoOptions{Resolution: "720p"}).IsZero())
}

func TestNormalizePrompt(t *testing.T) {
	assert.Equal(t, "a sword", NormalizePrompt("  A Sword  "))
	assert.Equal(t, "a sword", NormalizePrompt("a sword"))
	assert.Equal(t, "", NormalizePrompt("   "))
}
