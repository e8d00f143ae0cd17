package chain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest trimmed request text the chain will accept.
const MaxTextLength = 10000

// DisabledBreakerThreshold is the sentinel FailureThreshold value that makes
// a breaker "effectively disabled": consecutiveFailures will never reach it
// in practice, so the provider never transitions to Open. Configure a
// terminal offline fallback with this threshold so it is always attempted.
const DisabledBreakerThreshold = 1 << 30

// SynthesisRequest is the input to ProviderChain.Synthesize.
type SynthesisRequest struct {
	// Text is the content to synthesize. Must be non-empty after trimming
	// whitespace, and at most MaxTextLength characters long.
	Text string

	// Voice is an optional backend-specific voice identifier.
	Voice string

	// Rate is in [-100, 100]; 0 is each backend's default speaking rate.
	Rate int

	// Pitch is in [-100, 100]; 0 is each backend's default pitch.
	Pitch int

	// PreferredProvider, if set, is hoisted to the front of the candidate
	// order (case-insensitive match) for this call only.
	PreferredProvider string

	// FallbackChain, if non-empty, replaces the default priority order
	// with this explicit sequence of provider names for this call only.
	FallbackChain []string

	// AgentName and AgentInstanceID are optional diagnostic tags carried on
	// the request. The chain does not read them: they do not affect routing
	// and are not copied into log lines or attempt records.
	AgentName       string
	AgentInstanceID string

	// RequestID is an optional correlation identifier. WithRequestID (see
	// request.go) fills it in with a generated UUID when empty.
	RequestID string
}

// Validate checks the invariants from spec §3: non-empty trimmed text
// within MaxTextLength, and rate/pitch within [-100, 100]. It returns a
// *Error with KindValidation on failure.
func (r *SynthesisRequest) Validate() error {
	trimmed := strings.TrimSpace(r.Text)
	if trimmed == "" {
		return NewError(KindValidation, "text must not be empty", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxTextLength {
		return NewError(KindValidation, "text exceeds maximum length", nil)
	}
	if r.Rate < -100 || r.Rate > 100 {
		return NewError(KindValidation, "rate must be in [-100, 100]", nil)
	}
	if r.Pitch < -100 || r.Pitch > 100 {
		return NewError(KindValidation, "pitch must be in [-100, 100]", nil)
	}
	return nil
}

// AudioVariant distinguishes the two shapes SynthesisResult.Audio may take.
type AudioVariant int

const (
	// AudioNone means no audio is present (a failure result).
	AudioNone AudioVariant = iota
	// AudioMemory carries raw encoded audio bytes.
	AudioMemory
	// AudioFile references an already-written audio file on disk.
	AudioFile
)

// Audio is the sum type {Memory(bytes, contentType), File(path, contentType)}
// from spec §3. Exactly one of Bytes or Path is meaningful, selected by
// Variant.
type Audio struct {
	Variant     AudioVariant
	Bytes       []byte
	Path        string
	ContentType string
}

// MemoryAudio builds an in-memory Audio value.
func MemoryAudio(data []byte, contentType string) Audio {
	return Audio{Variant: AudioMemory, Bytes: data, ContentType: contentType}
}

// FileAudio builds a file-backed Audio value.
func FileAudio(path, contentType string) Audio {
	return Audio{Variant: AudioFile, Path: path, ContentType: contentType}
}

// AttemptRecord describes one provider's attempt during a request.
// RequestID carries the request's correlation identifier so an attempt can
// be matched to log lines emitted by other systems handling the same
// request.
type AttemptRecord struct {
	ProviderName string
	ErrorMessage string
	Duration     time.Duration
	RequestID    string
}

// SynthesisResult is the output of ProviderChain.Synthesize and of each
// Provider's own Synthesize method.
type SynthesisResult struct {
	Success          bool
	Audio            Audio
	ProviderUsed     string
	GenerationTime   time.Duration
	AudioDuration    time.Duration // best-effort; zero if unknown
	HasAudioDuration bool
	ErrorMessage     string
	Attempts         []AttemptRecord
}

// BreakerConfig is the static per-provider breaker configuration from
// spec §3 ("breaker" sub-object of ProviderConfig).
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Use DisabledBreakerThreshold for a terminal fallback that
	// must always be tried.
	FailureThreshold int

	// ResetTimeout is the base Open duration.
	ResetTimeout time.Duration

	// UseExponentialBackoff doubles the multiplier on each successive
	// re-open, capped at MaxResetTimeout.
	UseExponentialBackoff bool

	// MaxResetTimeout caps the exponential backoff timeout. Ignored when
	// UseExponentialBackoff is false.
	MaxResetTimeout time.Duration
}

// ProviderConfig is the static per-provider wiring from spec §3.
type ProviderConfig struct {
	Name     string
	Priority int
	Enabled  bool
	Breaker  BreakerConfig
}
