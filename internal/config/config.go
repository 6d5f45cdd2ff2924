// Package config handles environment-variable driven configuration, with an
// optional YAML overlay: read file, expand ${VAR} references, unmarshal onto
// defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/fakeai-dev/fakeai/internal/ratelimit"
)

// Config is the top-level server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Latency   LatencyConfig   `yaml:"latency"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	KVCache   KVCacheConfig   `yaml:"kv_cache"`
	Streaming StreamingConfig `yaml:"streaming"`
}

// ServerConfig holds HTTP bind and request-size settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LatencyConfig parameterizes the TTFT/ITL sampler.
type LatencyConfig struct {
	TTFTMs            float64 `yaml:"ttft_ms"`
	ITLMs             float64 `yaml:"itl_ms"`
	TTFTVariancePct   float64 `yaml:"ttft_variance_percent"`
	ITLVariancePct    float64 `yaml:"itl_variance_percent"`
}

// AuthConfig holds the API key allowlist.
type AuthConfig struct {
	APIKeys        []string `yaml:"api_keys"`
	RequireAPIKey  bool     `yaml:"require_api_key"`
}

// RateLimitConfig selects the tier applied to every key.
type RateLimitConfig struct {
	Enabled bool            `yaml:"enabled"`
	Tier    ratelimit.Tier  `yaml:"tier"`
}

// KVCacheConfig parameterizes the block-hash router.
type KVCacheConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BlockSize     int     `yaml:"block_size"`
	NumWorkers    int     `yaml:"num_workers"`
	OverlapWeight float64 `yaml:"overlap_weight"`
}

// StreamingConfig parameterizes the streaming engine's timeouts.
type StreamingConfig struct {
	StreamTimeoutSeconds    int `yaml:"stream_timeout_seconds"`
	KeepaliveIntervalSeconds int `yaml:"stream_keepalive_interval_seconds"`
}

// Defaults returns the configuration used when no environment variables or
// config file are present.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000, MaxRequestSize: 100 << 20},
		Latency: LatencyConfig{TTFTMs: 200, ITLMs: 20, TTFTVariancePct: 20, ITLVariancePct: 20},
		Auth:    AuthConfig{RequireAPIKey: false},
		RateLimit: RateLimitConfig{Enabled: false, Tier: ratelimit.TierFree},
		KVCache: KVCacheConfig{Enabled: true, BlockSize: 16, NumWorkers: 4, OverlapWeight: 1.0},
		Streaming: StreamingConfig{StreamTimeoutSeconds: 300, KeepaliveIntervalSeconds: 15},
	}
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// LoadFile reads and parses an optional YAML overlay on top of cfg,
// expanding environment variables first.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadEnv overlays FAKEAI_* environment variables onto cfg, matching
// the full set of recognized FAKEAI_* variables.
func LoadEnv(cfg *Config) {
	if v, ok := lookup("HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := lookupInt("PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := lookupFloat("TTFT_MS"); ok {
		cfg.Latency.TTFTMs = v
	}
	if v, ok := lookupFloat("ITL_MS"); ok {
		cfg.Latency.ITLMs = v
	}
	if v, ok := lookupFloat("TTFT_VARIANCE_PERCENT"); ok {
		cfg.Latency.TTFTVariancePct = v
	}
	if v, ok := lookupFloat("ITL_VARIANCE_PERCENT"); ok {
		cfg.Latency.ITLVariancePct = v
	}
	if v, ok := lookup("API_KEYS"); ok {
		cfg.Auth.APIKeys = splitCSV(v)
	}
	if v, ok := lookupBool("REQUIRE_API_KEY"); ok {
		cfg.Auth.RequireAPIKey = v
	}
	if v, ok := lookupBool("RATE_LIMIT_ENABLED"); ok {
		cfg.RateLimit.Enabled = v
	}
	if v, ok := lookup("RATE_LIMIT_TIER"); ok {
		cfg.RateLimit.Tier = ratelimit.Tier(v)
	}
	if v, ok := lookupBool("KV_CACHE_ENABLED"); ok {
		cfg.KVCache.Enabled = v
	}
	if v, ok := lookupInt("KV_CACHE_BLOCK_SIZE"); ok {
		cfg.KVCache.BlockSize = v
	}
	if v, ok := lookupInt("KV_CACHE_NUM_WORKERS"); ok {
		cfg.KVCache.NumWorkers = v
	}
	if v, ok := lookupFloat("KV_OVERLAP_WEIGHT"); ok {
		cfg.KVCache.OverlapWeight = v
	}
	if v, ok := lookupInt("STREAM_TIMEOUT_SECONDS"); ok {
		cfg.Streaming.StreamTimeoutSeconds = v
	}
	if v, ok := lookupInt("STREAM_KEEPALIVE_INTERVAL_SECONDS"); ok {
		cfg.Streaming.KeepaliveIntervalSeconds = v
	}
	if v, ok := lookupInt64("MAX_REQUEST_SIZE"); ok {
		cfg.Server.MaxRequestSize = v
	}
}

const envPrefix = "FAKEAI_"

func lookup(name string) (string, bool) {
	return os.LookupEnv(envPrefix + name)
}

func lookupInt(name string) (int, bool) {
	v, ok := lookup(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func lookupInt64(name string) (int64, bool) {
	v, ok := lookup(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

func lookupFloat(name string) (float64, bool) {
	v, ok := lookup(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func lookupBool(name string) (bool, bool) {
	v, ok := lookup(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StreamTimeout and KeepaliveInterval convert the streaming config's
// second-granularity fields to time.Duration for wiring into
// internal/streaming.Engine.
func (c StreamingConfig) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutSeconds) * time.Second
}

func (c StreamingConfig) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveIntervalSeconds) * time.Second
}
