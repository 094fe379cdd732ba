package vertex

import (
	"encoding/base64"
	"fmt"
)

// bytesProbes lists the response envelope locations that may carry the
// generated video, in precedence order. The provider has shipped several
// envelope shapes across model revisions.
var bytesProbes = [][]any{
	{"predictions", 0, "bytesBase64Encoded"},
	{"predictions", 0, "video", "bytesBase64Encoded"},
	{"videos", 0, "bytesBase64Encoded"},
	{"generatedSamples", 0, "video", "bytesBase64Encoded"},
	{"video", "bytesBase64Encoded"},
}

// dig walks a decoded JSON structure by string keys and integer indexes.
func dig(v any, path ...any) (any, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok = m[key]
			if !ok {
				return nil, false
			}
		case int:
			arr, ok := v.([]any)
			if !ok || key >= len(arr) {
				return nil, false
			}
			v = arr[key]
		}
	}
	return v, true
}

// extractVideoBytes probes the LRO result envelope for base64 video data.
// A raiMediaFilteredCount above zero, or no probe matching, yields a
// SafetyError carrying the first filtered reason.
func extractVideoBytes(envelope map[string]any) ([]byte, error) {
	if count, ok := dig(envelope, "raiMediaFilteredCount"); ok {
		if n, ok := count.(float64); ok && n > 0 {
			return nil, &SafetyError{Reason: firstFilteredReason(envelope)}
		}
	}

	for _, probe := range bytesProbes {
		v, ok := dig(envelope, probe...)
		if !ok {
			continue
		}
		encoded, ok := v.(string)
		if !ok || encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode video payload: %w", err)
		}
		return data, nil
	}

	return nil, &SafetyError{Reason: firstFilteredReason(envelope)}
}

// firstFilteredReason returns the first raiMediaFilteredReasons entry, if any.
func firstFilteredReason(envelope map[string]any) string {
	if v, ok := dig(envelope, "raiMediaFilteredReasons", 0); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "no media returned"
}
