package ttsconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYAML = `
orchestration:
  providers:
    - name: google-cloud
      priority: 1
      enabled: true
      breaker:
        failureThreshold: 3
        resetTimeout: 30s
        useExponentialBackoff: true
        maxResetTimeout: 1h

multiKey:
  google-cloud:
    apiKeySecrets:
      - secretKey: GOOGLE_TTS_API_KEY_1
        displayName: primary
    voice: cs-CZ-Standard-A
    audioEncoding: MP3
    speakingRate: 1.0
    sampleRateHertz: 24000
    timeout: 10s
    rateLimitCooldown: 1h
    quotaExceededCooldown: 24h
`

func TestLoad_ParsesDurationsAndNesting(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)

	require.Len(t, f.Orchestration.Providers, 1)
	p := f.Orchestration.Providers[0]
	assert.Equal(t, "google-cloud", p.Name)
	assert.Equal(t, 30*time.Second, time.Duration(p.Breaker.ResetTimeout))
	assert.Equal(t, time.Hour, time.Duration(p.Breaker.MaxResetTimeout))
	assert.True(t, p.Breaker.UseExponentialBackoff)

	mk, ok := f.MultiKey["google-cloud"]
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, time.Duration(mk.Timeout))
	assert.Equal(t, 24*time.Hour, time.Duration(mk.QuotaExceededCooldown))
}

func TestDuration_RejectsMalformedString(t *testing.T) {
	var d Duration
	err := yaml.Unmarshal([]byte(`"not-a-duration"`), &d)
	assert.Error(t, err)
}

func TestDuration_AcceptsBareNanoseconds(t *testing.T) {
	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, time.Duration(d))
}

func TestBuildProviderConfigs(t *testing.T) {
	f := &File{}
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), f))

	configs := BuildProviderConfigs(f)
	require.Len(t, configs, 1)
	assert.Equal(t, "google-cloud", configs[0].Name)
	assert.Equal(t, 1, configs[0].Priority)
	assert.Equal(t, 30*time.Second, configs[0].Breaker.ResetTimeout)
}

func TestResolveSecrets_Success(t *testing.T) {
	t.Setenv("TEST_TTS_KEY_1", "resolved-value")
	entry := MultiKeyEntry{APIKeySecrets: []APIKeySecretEntry{
		{SecretKey: "TEST_TTS_KEY_1", DisplayName: "primary"},
	}}

	secrets, err := ResolveSecrets(entry)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "primary", secrets[0].DisplayName)
	assert.Equal(t, "resolved-value", secrets[0].SecretValue)
}

func TestResolveSecrets_UnresolvedIsConfigFatal(t *testing.T) {
	entry := MultiKeyEntry{APIKeySecrets: []APIKeySecretEntry{
		{SecretKey: "TEST_TTS_KEY_DOES_NOT_EXIST", DisplayName: "primary"},
	}}

	_, err := ResolveSecrets(entry)
	require.Error(t, err)
}

func TestBuildGoogleTTSConfig_AppliesDefaultsOnlyWhenZero(t *testing.T) {
	entry := MultiKeyEntry{Voice: "cs-CZ-Standard-A", AudioEncoding: "MP3"}
	cfg := BuildGoogleTTSConfig(entry)
	assert.Equal(t, time.Hour, cfg.Pool.RateLimitCooldown)
	assert.Equal(t, 24*time.Hour, cfg.Pool.QuotaExceededCooldown)

	entryWithOverride := MultiKeyEntry{RateLimitCooldown: Duration(5 * time.Minute)}
	cfg = BuildGoogleTTSConfig(entryWithOverride)
	assert.Equal(t, 5*time.Minute, cfg.Pool.RateLimitCooldown)
}

func TestLoadDotenv_MissingFileIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadDotenv("/nonexistent/path/.env"))
}
