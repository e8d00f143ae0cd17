package chain

import "github.com/google/uuid"

// WithRequestID returns a copy of req with RequestID filled in via a
// generated UUID if it was empty. Callers normally invoke this once at the
// service boundary, before Validate/Synthesize, so every log line and
// AttemptRecord for a request can be correlated across providers and, for
// MultiKeyClient, across key-rotation attempts.
func WithRequestID(req SynthesisRequest) SynthesisRequest {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}
