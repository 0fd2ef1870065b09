package playback

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// PlaybackHandle tracks one in-progress audio playback.
type PlaybackHandle interface {
	// Position returns the current playback position.
	Position() time.Duration
	// Done is closed (with the terminal error, if any) when playback ends.
	Done() <-chan error
	// Stop halts playback immediately.
	Stop()
}

// Player starts audio playback for a narration asset's bytes.
type Player interface {
	Play(ctx context.Context, audio []byte) (PlaybackHandle, error)
}

// ExecPlayer plays audio through an external binary (ffplay by default),
// the same way the rest of the media tooling shells out to ffmpeg.
type ExecPlayer struct {
	Bin string
}

// NewExecPlayer creates a player using the given binary, or ffplay when
// empty.
func NewExecPlayer(bin string) *ExecPlayer {
	if bin == "" {
		bin = "ffplay"
	}
	return &ExecPlayer{Bin: bin}
}

type execHandle struct {
	cmd      *exec.Cmd
	started  time.Time
	tmpPath  string
	done     chan error
	stopOnce sync.Once
}

func (h *execHandle) Position() time.Duration {
	return time.Since(h.started)
}

func (h *execHandle) Done() <-chan error {
	return h.done
}

func (h *execHandle) Stop() {
	h.stopOnce.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

// Play writes the audio to a temp file and launches the player binary.
// Position is wall-clock time since launch, which tracks closely enough for
// word-level reveal.
func (p *ExecPlayer) Play(ctx context.Context, audio []byte) (PlaybackHandle, error) {
	if _, err := exec.LookPath(p.Bin); err != nil {
		return nil, fmt.Errorf("audio player binary not found: %w", err)
	}

	tmp, err := os.CreateTemp("", "narration-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("creating audio temp file: %w", err)
	}
	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing audio temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("closing audio temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.Bin, "-nodisp", "-autoexit", "-loglevel", "quiet", tmp.Name())
	if err := cmd.Start(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("starting audio player: %w", err)
	}

	handle := &execHandle{
		cmd:     cmd,
		started: time.Now(),
		tmpPath: tmp.Name(),
		done:    make(chan error, 1),
	}

	go func() {
		err := cmd.Wait()
		os.Remove(handle.tmpPath)
		handle.done <- err
		close(handle.done)
	}()

	return handle, nil
}
