package vertex

import (
	"fmt"
	"strings"
)

// SafetyMessage is the fixed user-facing sentence stored on jobs rejected by
// the provider's content policy. Raw provider messages are inconsistent and
// leak internal vocabulary, so they are never surfaced.
const SafetyMessage = "콘텐츠 안전 정책에 따라 요청이 차단되었습니다. 프롬프트를 수정한 후 다시 시도해 주세요."

// RetryableError marks a transient provider failure (429/500/503 class).
// The retry tier retries these; once its attempts are exhausted the last one
// is returned to the caller unchanged and fails the job.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// SafetyError marks a content-policy rejection. Error() is the fixed
// localized sentence; Reason keeps the provider's raw label for logs.
type SafetyError struct {
	Reason string
}

func (e *SafetyError) Error() string { return SafetyMessage }

// TimeoutError marks a long-running operation that exceeded its wall-clock
// budget.
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video generation timed out: operation %s did not complete", e.Operation)
}

// retryablePatterns are matched as plain substrings against provider error
// text (the provider mixes numeric codes and gRPC status names).
var retryablePatterns = []string{
	"429", "RESOURCE_EXHAUSTED",
	"503", "UNAVAILABLE",
	"500", "INTERNAL",
}

// safetyPatterns are matched case-insensitively against provider error text.
var safetyPatterns = []string{
	"usage guidelines",
	"could not be submitted",
	"raimediafiltered",
	"safety",
	"responsible ai",
	"copyright",
	"trademark",
	"person",
	"child",
	"blocked",
}

// isSafetyText reports whether provider error text matches a safety pattern.
func isSafetyText(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range safetyPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifyError buckets a raw provider error into retryable, safety, or
// non-retryable (returned verbatim).
func classifyError(err error) error {
	s := err.Error()
	for _, p := range retryablePatterns {
		if strings.Contains(s, p) {
			return &RetryableError{Err: err}
		}
	}
	if isSafetyText(s) {
		return &SafetyError{Reason: s}
	}
	return err
}
