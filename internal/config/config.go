package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the courtd server and the
// courtroom client. Values come from environment variables with sensible
// defaults; a local .env file is honored when present.
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Narration NarrationConfig
	Registry  RegistryConfig
	Playback  PlaybackConfig
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Host          string
	Port          string
	Mode          string // gin mode: debug, release, test
	MaxUploadSize int64  // bytes
}

// LLMConfig points the generation agents at an OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// NarrationConfig points the playback engine at a Kokoro-style
// captioned-speech TTS endpoint.
type NarrationConfig struct {
	BaseURL      string
	Model        string
	Speed        float64
	Timeout      time.Duration
	VoiceJudge   string
	VoiceSupport string
	VoiceOppose  string
}

// RegistryConfig tunes job retention.
type RegistryConfig struct {
	TerminalTTL   time.Duration // how long completed/failed jobs are kept
	SweepInterval time.Duration
}

// PlaybackConfig exposes the presentation timing knobs. These are UX tuning
// values, not protocol requirements, so they live here rather than as
// literals in the engine.
type PlaybackConfig struct {
	FinishDelay   time.Duration // hold after audio completes
	SkipDelay     time.Duration // hold after an explicit skip
	FallbackDelay time.Duration // hold when narration is unavailable
	ErrorDelay    time.Duration // hold after a mid-stream playback error
	PollInterval  time.Duration // text reveal sync cadence
	IdleWait      time.Duration // re-check cadence while the queue is empty
	PrefetchDepth int           // how many upcoming steps to prefetch
}

// Load reads configuration from the environment.
func Load() *Config {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          getEnv("PORT", "3000"),
			Mode:          getEnv("GIN_MODE", "release"),
			MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "llama3.1"),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 120*time.Second),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		},
		Narration: NarrationConfig{
			BaseURL:      getEnv("TTS_API_URL", "http://localhost:8880/dev/captioned_speech"),
			Model:        getEnv("TTS_MODEL", "kokoro"),
			Speed:        getEnvFloat("TTS_SPEED", 1.0),
			Timeout:      getEnvDuration("TTS_TIMEOUT", 60*time.Second),
			VoiceJudge:   getEnv("TTS_VOICE_JUDGE", "am_santa"),
			VoiceSupport: getEnv("TTS_VOICE_SUPPORT", "am_michael"),
			VoiceOppose:  getEnv("TTS_VOICE_OPPOSE", "am_adam"),
		},
		Registry: RegistryConfig{
			TerminalTTL:   getEnvDuration("JOB_TERMINAL_TTL", time.Hour),
			SweepInterval: getEnvDuration("JOB_SWEEP_INTERVAL", 5*time.Minute),
		},
		Playback: PlaybackConfig{
			FinishDelay:   getEnvDuration("PLAYBACK_FINISH_DELAY", 600*time.Millisecond),
			SkipDelay:     getEnvDuration("PLAYBACK_SKIP_DELAY", 300*time.Millisecond),
			FallbackDelay: getEnvDuration("PLAYBACK_FALLBACK_DELAY", 3*time.Second),
			ErrorDelay:    getEnvDuration("PLAYBACK_ERROR_DELAY", 2*time.Second),
			PollInterval:  getEnvDuration("PLAYBACK_POLL_INTERVAL", 33*time.Millisecond),
			IdleWait:      getEnvDuration("PLAYBACK_IDLE_WAIT", time.Second),
			PrefetchDepth: getEnvInt("PLAYBACK_PREFETCH_DEPTH", 2),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
