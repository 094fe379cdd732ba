package vertex

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestExtractVideoBytesProbesAllLocations(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("video-data"))

	envelopes := []string{
		`{"predictions":[{"bytesBase64Encoded":"` + payload + `"}]}`,
		`{"predictions":[{"video":{"bytesBase64Encoded":"` + payload + `"}}]}`,
		`{"videos":[{"bytesBase64Encoded":"` + payload + `"}]}`,
		`{"generatedSamples":[{"video":{"bytesBase64Encoded":"` + payload + `"}}]}`,
		`{"video":{"bytesBase64Encoded":"` + payload + `"}}`,
	}

	for _, raw := range envelopes {
		data, err := extractVideoBytes(envelope(t, raw))
		require.NoError(t, err, "envelope: %s", raw)
		assert.Equal(t, []byte("video-data"), data)
	}
}

func TestExtractVideoBytesPrefersEarlierProbes(t *testing.T) {
	first := base64.StdEncoding.EncodeToString([]byte("first"))
	second := base64.StdEncoding.EncodeToString([]byte("second"))

	raw := `{"predictions":[{"bytesBase64Encoded":"` + first + `"}],"videos":[{"bytesBase64Encoded":"` + second + `"}]}`
	data, err := extractVideoBytes(envelope(t, raw))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestExtractVideoBytesFilteredMedia(t *testing.T) {
	raw := `{"raiMediaFilteredCount":1,"raiMediaFilteredReasons":["person"]}`
	_, err := extractVideoBytes(envelope(t, raw))

	var safety *SafetyError
	require.True(t, errors.As(err, &safety))
	assert.Equal(t, "person", safety.Reason)
	assert.Equal(t, SafetyMessage, err.Error())
}

func TestExtractVideoBytesEmptyEnvelope(t *testing.T) {
	_, err := extractVideoBytes(envelope(t, `{}`))

	var safety *SafetyError
	require.True(t, errors.As(err, &safety))
}

func TestExtractVideoBytesInvalidBase64(t *testing.T) {
	raw := `{"predictions":[{"bytesBase64Encoded":"not-base64!!!"}]}`
	_, err := extractVideoBytes(envelope(t, raw))
	assert.Error(t, err)
}
