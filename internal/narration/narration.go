// Package narration acquires synthesized speech with word-level timing from
// a captioned-speech TTS service. The playback engine tolerates both outright
// failure and empty timing data from this collaborator.
package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pixelcourt/pixelcourt/internal/config"
)

// SpeakerRole selects the voice a line is narrated in.
type SpeakerRole string

const (
	RoleJudge   SpeakerRole = "judge"
	RoleSupport SpeakerRole = "support"
	RoleOppose  SpeakerRole = "oppose"
)

// WordTimestamp fixes one word's interval within the audio, in seconds.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Asset is one step's narration: the audio bytes plus word timing. The
// timestamps slice may be empty; callers must fall back to untimed display.
type Asset struct {
	Audio      []byte
	Timestamps []WordTimestamp
}

// Release drops the audio buffer. Assets are cached per step for a session's
// lifetime, so the cache calls this when the session resets.
func (a *Asset) Release() {
	a.Audio = nil
	a.Timestamps = nil
}

// Narrator converts text plus a speaker role into a narration asset.
type Narrator interface {
	Synthesize(ctx context.Context, text string, role SpeakerRole) (*Asset, error)
}

// Client is the HTTP Narrator for a Kokoro-style captioned-speech endpoint.
type Client struct {
	cfg        config.NarrationConfig
	httpClient *http.Client
}

// NewClient creates a narration client.
func NewClient(cfg config.NarrationConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Voice returns the configured voice for a speaker role.
func (c *Client) Voice(role SpeakerRole) string {
	switch role {
	case RoleSupport:
		return c.cfg.VoiceSupport
	case RoleOppose:
		return c.cfg.VoiceOppose
	default:
		return c.cfg.VoiceJudge
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
	Stream         bool    `json:"stream"`
}

type speechResponse struct {
	Audio      string          `json:"audio"`
	Timestamps []WordTimestamp `json:"timestamps"`
}

// Synthesize requests narration for one step's text.
func (c *Client) Synthesize(ctx context.Context, text string, role SpeakerRole) (*Asset, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          c.cfg.Model,
		Input:          text,
		Voice:          c.Voice(role),
		Speed:          c.cfg.Speed,
		ResponseFormat: "mp3",
		Stream:         false,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech synthesis returned %d", resp.StatusCode)
	}

	var parsed speechResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding speech response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Audio)
	if err != nil {
		return nil, fmt.Errorf("decoding speech audio: %w", err)
	}

	return &Asset{Audio: audio, Timestamps: parsed.Timestamps}, nil
}
