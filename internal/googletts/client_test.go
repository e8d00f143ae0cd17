package googletts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttsrelay/ttschain/internal/chain"
)

// scriptedDoer returns one scripted response per call, in order.
type scriptedDoer struct {
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	status int
	body   string // raw JSON body; "" means an empty body
	err    error
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	if d.calls >= len(d.responses) {
		panic("scriptedDoer: no more scripted responses")
	}
	r := d.responses[d.calls]
	d.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(r.body))),
		Header:     http.Header{},
	}, nil
}

func okBody(t *testing.T, audioContent string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"audioContent": audioContent})
	require.NoError(t, err)
	return string(raw)
}

func newTestClient(clock chain.Clock, doer HTTPDoer, secrets []KeySecret) *MultiKeyClient {
	return New("google-cloud", Config{
		Voice:           "cs-CZ-Standard-A",
		AudioEncoding:   EncodingMP3,
		SpeakingRate:    1.0,
		SampleRateHertz: 24000,
	}, secrets, clock, nil, doer)
}

func TestMultiKeyClient_SuccessOnFirstKey(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{status: http.StatusOK, body: okBody(t, "ZmFrZQ==")},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	result, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "fake", string(result.Audio.Bytes))
	assert.Equal(t, "audio/mpeg", result.Audio.ContentType)
}

func TestMultiKeyClient_RotatesKeysOnRateLimitThenQuotaThenSucceeds(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{status: http.StatusTooManyRequests},
		{status: http.StatusForbidden},
		{status: http.StatusOK, body: okBody(t, "ZmFrZQ==")},
	}}
	secrets := []KeySecret{
		{DisplayName: "key-1", SecretValue: "s1"},
		{DisplayName: "key-2", SecretValue: "s2"},
		{DisplayName: "key-3", SecretValue: "s3"},
	}
	c := newTestClient(clock, doer, secrets)

	result, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, doer.calls)
}

func TestMultiKeyClient_AllKeysExhausted(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{status: http.StatusUnauthorized},
		{status: http.StatusUnauthorized},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	result, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "all API keys exhausted", result.ErrorMessage)
}

func TestMultiKeyClient_MalformedSuccessBodyIsFatalNotRetried(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{status: http.StatusOK, body: `{}`},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	result, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, doer.calls, "a malformed 200 must not be retried against another key")
}

func TestMultiKeyClient_TransportErrorMarksKeyTemporaryAndRotates(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{err: errors.New("connection refused")},
		{status: http.StatusOK, body: okBody(t, "ZmFrZQ==")},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	result, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestMultiKeyClient_ContextCanceledDuringTransportIsReportedAsCancellation(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{err: errors.New("context canceled")},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Synthesize(ctx, &chain.SynthesisRequest{Text: "hi"})
	require.Error(t, err)
	assert.True(t, chain.IsCancellation(err))
}

func TestMultiKeyClient_InfoReflectsPoolAvailabilityAndLastSuccess(t *testing.T) {
	clock := chain.NewVirtualClock(time.Unix(0, 0))
	doer := &scriptedDoer{responses: []scriptedResponse{
		{status: http.StatusOK, body: okBody(t, "ZmFrZQ==")},
	}}
	c := newTestClient(clock, doer, twoKeySecrets())

	info := c.Info()
	assert.Equal(t, chain.ProviderAvailable, info.Status)
	assert.Nil(t, info.LastSuccessTime)

	_, err := c.Synthesize(context.Background(), &chain.SynthesisRequest{Text: "hi"})
	require.NoError(t, err)

	info = c.Info()
	require.NotNil(t, info.LastSuccessTime)
}
