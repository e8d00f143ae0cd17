// Package ttsconfig loads the orchestration/multiKey configuration schema
// from spec §6.1 and turns it into the pre-populated value objects the core
// consumes. Parsing and secret resolution are explicitly out of scope for
// internal/chain and internal/googletts (spec §1: "Configuration loading
// ... is consumed, not parsed by the core") — this package is the one
// place that reads YAML and the environment.
package ttsconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ttsrelay/ttschain/internal/chain"
	"github.com/ttsrelay/ttschain/internal/googletts"
)

// Duration parses YAML duration fields ("30s", "1h") the way the rest of
// the schema expects, since yaml.v3 has no built-in notion of
// time.Duration: it would otherwise unmarshal a bare integer as
// nanoseconds and reject a unit-suffixed string outright.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("1h30m") or a bare
// number of nanoseconds, for callers that build a File value directly.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!str":
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("ttsconfig: invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		var nanos int64
		if err := value.Decode(&nanos); err != nil {
			return fmt.Errorf("ttsconfig: invalid duration: %w", err)
		}
		*d = Duration(nanos)
		return nil
	}
}

// File is the literal YAML shape from spec §6.1.
type File struct {
	Orchestration struct {
		Providers []ProviderEntry `yaml:"providers"`
	} `yaml:"orchestration"`

	MultiKey map[string]MultiKeyEntry `yaml:"multiKey"`
}

// ProviderEntry is one orchestration.providers[] element.
type ProviderEntry struct {
	Name     string       `yaml:"name"`
	Priority int          `yaml:"priority"`
	Enabled  bool         `yaml:"enabled"`
	Breaker  BreakerEntry `yaml:"breaker"`
}

// BreakerEntry is the providers[].breaker sub-object.
type BreakerEntry struct {
	FailureThreshold      int      `yaml:"failureThreshold"`
	ResetTimeout          Duration `yaml:"resetTimeout"`
	UseExponentialBackoff bool     `yaml:"useExponentialBackoff"`
	MaxResetTimeout       Duration `yaml:"maxResetTimeout"`
}

// APIKeySecretEntry is one multiKey.<name>.apiKeySecrets[] element.
type APIKeySecretEntry struct {
	SecretKey   string `yaml:"secretKey"`
	DisplayName string `yaml:"displayName"`
}

// MultiKeyEntry is one multiKey.<name> object.
type MultiKeyEntry struct {
	APIKeySecrets         []APIKeySecretEntry `yaml:"apiKeySecrets"`
	Voice                 string              `yaml:"voice"`
	AudioEncoding         string              `yaml:"audioEncoding"`
	SpeakingRate          float64             `yaml:"speakingRate"`
	Pitch                 float64             `yaml:"pitch"`
	VolumeGainDb          float64             `yaml:"volumeGainDb"`
	SampleRateHertz       int                 `yaml:"sampleRateHertz"`
	Timeout               Duration            `yaml:"timeout"`
	RateLimitCooldown     Duration            `yaml:"rateLimitCooldown"`
	QuotaExceededCooldown Duration            `yaml:"quotaExceededCooldown"`
}

// Load reads and parses a YAML config file at path. It does not touch the
// environment or any ".env" file; call LoadDotenv separately before
// ResolveSecrets if symbolic secretKey names should resolve from a .env
// file (joho/godotenv).
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ttsconfig: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("ttsconfig: parsing %s: %w", path, err)
	}
	return &f, nil
}

// LoadDotenv loads environment variables from a .env file at path into the
// process environment, without overriding variables already set. A missing
// file is not an error — .env is an optional convenience, not required
// configuration.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// BuildProviderConfigs converts the orchestration.providers YAML entries
// into chain.ProviderConfig values.
func BuildProviderConfigs(f *File) []chain.ProviderConfig {
	out := make([]chain.ProviderConfig, 0, len(f.Orchestration.Providers))
	for _, p := range f.Orchestration.Providers {
		out = append(out, chain.ProviderConfig{
			Name:     p.Name,
			Priority: p.Priority,
			Enabled:  p.Enabled,
			Breaker: chain.BreakerConfig{
				FailureThreshold:      p.Breaker.FailureThreshold,
				ResetTimeout:          time.Duration(p.Breaker.ResetTimeout),
				UseExponentialBackoff: p.Breaker.UseExponentialBackoff,
				MaxResetTimeout:       time.Duration(p.Breaker.MaxResetTimeout),
			},
		})
	}
	return out
}

// ResolveSecrets resolves a multiKey entry's apiKeySecrets against the
// process environment, returning a KindConfigFatal *chain.Error (per spec
// §7) the moment any symbolic secretKey name fails to resolve — the whole
// client is either fully wired or not constructed at all.
func ResolveSecrets(entry MultiKeyEntry) ([]googletts.KeySecret, error) {
	out := make([]googletts.KeySecret, 0, len(entry.APIKeySecrets))
	for _, s := range entry.APIKeySecrets {
		value, ok := os.LookupEnv(s.SecretKey)
		if !ok || value == "" {
			return nil, chain.NewError(chain.KindConfigFatal,
				fmt.Sprintf("unresolved API key secret %q", s.SecretKey), googletts.ErrUnresolvedSecret)
		}
		out = append(out, googletts.KeySecret{DisplayName: s.DisplayName, SecretValue: value})
	}
	return out, nil
}

// BuildGoogleTTSConfig converts a multiKey YAML entry into
// googletts.Config, applying the spec §4.4.1 defaults (1h / 24h cooldowns)
// when the entry leaves them at zero.
func BuildGoogleTTSConfig(entry MultiKeyEntry) googletts.Config {
	pool := googletts.DefaultKeyPoolConfig()
	if entry.RateLimitCooldown > 0 {
		pool.RateLimitCooldown = time.Duration(entry.RateLimitCooldown)
	}
	if entry.QuotaExceededCooldown > 0 {
		pool.QuotaExceededCooldown = time.Duration(entry.QuotaExceededCooldown)
	}

	return googletts.Config{
		Voice:           entry.Voice,
		AudioEncoding:   googletts.AudioEncoding(entry.AudioEncoding),
		SpeakingRate:    entry.SpeakingRate,
		VolumeGainDb:    entry.VolumeGainDb,
		SampleRateHertz: entry.SampleRateHertz,
		Timeout:         time.Duration(entry.Timeout),
		Pool:            pool,
	}
}
