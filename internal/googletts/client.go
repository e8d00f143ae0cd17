package googletts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ttsrelay/ttschain/internal/chain"
	"github.com/ttsrelay/ttschain/internal/ttslog"
)

// DefaultEndpoint is the Google Cloud Text-to-Speech REST endpoint (spec
// §6.2).
const DefaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// HTTPDoer is the minimal interface MultiKeyClient needs from an HTTP
// client. *http.Client satisfies it. Tests inject a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config is the static per-client wiring from spec §6.1's multiKey schema,
// minus the key secrets themselves (resolved separately; see
// internal/ttsconfig).
type Config struct {
	Voice           string
	AudioEncoding   AudioEncoding
	SpeakingRate    float64 // default neutral rate for RateToMultiplier, e.g. 1.0
	PitchOffset     float64 // added to PitchToSemitones(req.Pitch); usually 0
	VolumeGainDb    float64
	SampleRateHertz int
	Timeout         time.Duration
	Endpoint        string // overridable for tests; DefaultEndpoint if empty

	Pool KeyPoolConfig
}

// MultiKeyClient is the multi-key Google Cloud TTS client from spec §4.4.
// It presents a single chain.Provider to the orchestrator while internally
// rotating among up to N API keys for the same endpoint.
type MultiKeyClient struct {
	name   string
	config Config
	pool   *KeyPool
	clock  chain.Clock
	logger ttslog.Logger

	httpClient HTTPDoer
	ownsClient bool

	mu              sync.Mutex
	lastSuccessTime *time.Time
}

// New constructs a MultiKeyClient. httpClient may be nil, in which case the
// client constructs and owns its own *http.Client sized to config.Timeout
// (spec §5: "owned by it when constructed internally; owned externally
// when injected"). secrets must be pre-resolved (symbolic secretKey names
// already looked up against the environment) — an unresolved secret name
// is a construction-time ConfigFatal error handled by internal/ttsconfig,
// not by this constructor.
func New(name string, config Config, secrets []KeySecret, clock chain.Clock, logger ttslog.Logger, httpClient HTTPDoer) *MultiKeyClient {
	if logger == nil {
		logger = ttslog.NewNoop()
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Pool == (KeyPoolConfig{}) {
		config.Pool = DefaultKeyPoolConfig()
	}

	ownsClient := httpClient == nil
	if ownsClient {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &MultiKeyClient{
		name:       name,
		config:     config,
		pool:       NewKeyPool(clock, config.Pool, secrets),
		clock:      clock,
		logger:     logger,
		httpClient: httpClient,
		ownsClient: ownsClient,
	}
}

// Name implements chain.Provider.
func (c *MultiKeyClient) Name() string {
	return c.name
}

// Info implements chain.Provider (spec §4.4.3).
func (c *MultiKeyClient) Info() chain.ProviderInfo {
	c.mu.Lock()
	last := c.lastSuccessTime
	c.mu.Unlock()

	var lastNanos *int64
	if last != nil {
		n := last.UnixNano()
		lastNanos = &n
	}

	return chain.ProviderInfo{
		Name:            c.name,
		Status:          c.pool.Availability(c.clock.Now()),
		LastSuccessTime: lastNanos,
	}
}

// Synthesize implements chain.Provider and the request lifecycle from spec
// §4.4: a bounded loop of at most |keys|+1 iterations, rotating keys on
// recoverable classification outcomes.
func (c *MultiKeyClient) Synthesize(ctx context.Context, req *chain.SynthesisRequest) (*chain.SynthesisResult, error) {
	start := c.clock.Now()
	maxIterations := c.pool.Len() + 1

	for i := 0; i < maxIterations; i++ {
		key, ok := c.pool.NextAvailable(c.clock.Now())
		if !ok {
			return &chain.SynthesisResult{
				Success:        false,
				ProviderUsed:   c.name,
				ErrorMessage:   "all API keys exhausted",
				GenerationTime: c.clock.Now().Sub(start),
			}, nil
		}

		httpReq, err := c.buildRequest(ctx, req, key)
		if err != nil {
			return nil, chain.NewError(chain.KindProviderFault, "building request", err)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", chain.Cancellation, ctx.Err())
			}
			// A transport-level failure (DNS, connection refused, TLS)
			// is not classified by status code; treat the key as a
			// temporary error and try the next one.
			c.pool.MarkTemporaryError(key, c.clock.Now())
			continue
		}

		result, classifyErr := c.classify(ctx, resp, key, req.RequestID)
		if classifyErr != nil {
			return nil, classifyErr
		}
		if result != nil {
			if result.Success {
				now := c.clock.Now()
				c.mu.Lock()
				c.lastSuccessTime = &now
				c.mu.Unlock()
			}
			result.ProviderUsed = c.name
			result.GenerationTime = c.clock.Now().Sub(start)
			return result, nil
		}
		// classify returned (nil, nil): key was marked for rotation,
		// continue the loop with a fresh key.
	}

	return &chain.SynthesisResult{
		Success:        false,
		ProviderUsed:   c.name,
		ErrorMessage:   "all API keys exhausted",
		GenerationTime: c.clock.Now().Sub(start),
	}, nil
}

// Pool exposes the client's key pool so callers can attach diagnostics
// (KeyPool.SetOnTransition, Snapshot) without this package depending on any
// metrics backend.
func (c *MultiKeyClient) Pool() *KeyPool {
	return c.pool
}

func (c *MultiKeyClient) buildRequest(ctx context.Context, req *chain.SynthesisRequest, key Key) (*http.Request, error) {
	body := synthesizeRequestBody{
		Input: inputPayload{Text: req.Text},
		Voice: voicePayload{
			LanguageCode: chain.VoiceLanguage(req.Voice),
			Name:         req.Voice,
		},
		AudioConfig: audioConfig{
			AudioEncoding:   c.config.AudioEncoding,
			SpeakingRate:    chain.RateToMultiplier(req.Rate, c.config.SpeakingRate),
			Pitch:           chain.PitchToSemitones(req.Pitch) + c.config.PitchOffset,
			VolumeGainDb:    c.config.VolumeGainDb,
			SampleRateHertz: c.config.SampleRateHertz,
		},
	}
	if body.Voice.Name == "" {
		body.Voice.Name = c.config.Voice
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", key.SecretValue)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// classify implements the HTTP status → action table from spec §4.4.2. It
// returns (result, nil) on a terminal outcome for this request (success, or
// the fatal case of a 200 whose body is not JSON, lacks audioContent, or
// carries invalid base64), (nil, nil) when the key was rotated and the
// caller should loop again, or (nil, err) when the 200 response body cannot
// be read.
func (c *MultiKeyClient) classify(ctx context.Context, resp *http.Response, key Key, requestID string) (*chain.SynthesisResult, error) {
	defer resp.Body.Close()
	now := c.clock.Now()

	if resp.StatusCode == http.StatusOK {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, chain.NewError(chain.KindProviderFault, "reading response body", err)
		}
		var decoded synthesizeResponseBody
		if err := json.Unmarshal(raw, &decoded); err != nil || decoded.AudioContent == "" {
			// Malformed 200 body is fatal for this request, not
			// retried against another key (spec §4.4.2).
			return &chain.SynthesisResult{
				Success:      false,
				ErrorMessage: "malformed response: missing audioContent",
			}, nil
		}
		audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
		if err != nil {
			return &chain.SynthesisResult{
				Success:      false,
				ErrorMessage: "malformed response: invalid base64 audioContent",
			}, nil
		}
		return &chain.SynthesisResult{
			Success: true,
			Audio:   chain.MemoryAudio(audio, c.config.AudioEncoding.ContentType()),
		}, nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.pool.MarkRateLimited(key, now)
		c.logger.Warn(ctx, "key rate limited",
			ttslog.F("key", key.DisplayName), ttslog.F("request_id", requestID))
	case resp.StatusCode == http.StatusForbidden:
		c.pool.MarkQuotaExceeded(key, now)
		c.logger.Warn(ctx, "key quota exceeded",
			ttslog.F("key", key.DisplayName), ttslog.F("request_id", requestID))
	case resp.StatusCode == http.StatusUnauthorized:
		c.pool.MarkInvalid(key)
		c.logger.Error(ctx, "key invalid",
			ttslog.F("key", key.DisplayName), ttslog.F("request_id", requestID))
	case resp.StatusCode >= 500:
		c.pool.MarkTemporaryError(key, now)
		c.logger.Warn(ctx, "key temporary error",
			ttslog.F("key", key.DisplayName), ttslog.F("status", resp.StatusCode),
			ttslog.F("request_id", requestID))
	default:
		c.pool.MarkTemporaryError(key, now)
		c.logger.Warn(ctx, "key temporary error",
			ttslog.F("key", key.DisplayName), ttslog.F("status", resp.StatusCode),
			ttslog.F("request_id", requestID))
	}
	return nil, nil
}

// Close releases the underlying HTTP client's idle connections if this
// client constructed (and therefore owns) it; it is a no-op for an
// injected client, per the ownership rule in spec §5.
func (c *MultiKeyClient) Close() {
	if !c.ownsClient {
		return
	}
	if hc, ok := c.httpClient.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
}

var _ chain.Provider = (*MultiKeyClient)(nil)
var errUnresolvedSecret = errors.New("googletts: unresolved API key secret")

// ErrUnresolvedSecret is returned (wrapped) when a configured secret name
// could not be resolved to a value — a ConfigFatal condition (spec §7)
// surfaced at construction time by internal/ttsconfig, not by this package.
var ErrUnresolvedSecret = errUnresolvedSecret
