package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/config"
	"github.com/pixelcourt/pixelcourt/internal/narration"
)

// State is the engine's per-step lifecycle.
type State int32

const (
	StateIdle State = iota
	StateAcquiring
	StatePlaying
	StateFinishing
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StatePlaying:
		return "playing"
	case StateFinishing:
		return "finishing"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine consumes the step queue strictly in order. A single goroutine owns
// the whole lifecycle, so at most one step is ever in a non-idle state; the
// processing flag only exists to assert that invariant from the outside.
type Engine struct {
	queue   *StepQueue
	fetcher *Fetcher
	player  Player
	display Display
	timings config.PlaybackConfig
	logger  *logrus.Logger

	state      atomic.Int32
	processing atomic.Bool
	verdict    atomic.Bool // verdict step has been consumed

	skip chan struct{}
	fail chan string

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewEngine wires the engine. player may be nil, in which case every step
// takes the no-audio fallback path.
func NewEngine(
	queue *StepQueue,
	fetcher *Fetcher,
	player Player,
	display Display,
	timings config.PlaybackConfig,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		queue:   queue,
		fetcher: fetcher,
		player:  player,
		display: display,
		timings: timings,
		logger:  logger,
		skip:    make(chan struct{}, 1),
		fail:    make(chan string, 1),
		stopped: make(chan struct{}),
	}
}

// State returns the engine's current step state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Processing reports whether a step is currently active.
func (e *Engine) Processing() bool {
	return e.processing.Load()
}

// Skip requests that the active step reveal its full text, stop any audio,
// and advance after the short skip delay. Duplicate requests while one is
// pending are coalesced.
func (e *Engine) Skip() {
	select {
	case e.skip <- struct{}{}:
	default:
	}
}

// Fail moves the engine into the terminal failed state. Called by the
// session when the job's event stream reports a pipeline error.
func (e *Engine) Fail(message string) {
	select {
	case e.fail <- message:
	default:
	}
}

// Stop halts consumption. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopped)
	})
}

// Run consumes steps until the session finishes, fails, or ctx is
// cancelled. It must be called exactly once.
func (e *Engine) Run(ctx context.Context) {
	idle := time.NewTimer(e.timings.IdleWait)
	defer idle.Stop()

	for {
		if msg, failed := e.checkFailed(); failed {
			e.display.SessionFailed(msg)
			e.state.Store(int32(StateFailed))
			return
		}

		step, index, ok := e.queue.TryNext()
		if !ok {
			// The queue is only considered exhausted once the verdict
			// has been consumed; until then the pipeline is still
			// producing and the engine waits.
			if e.verdict.Load() {
				e.display.SessionFinished()
				e.state.Store(int32(StateFinished))
				return
			}
			if !e.waitForWork(ctx, idle) {
				return
			}
			continue
		}

		e.runStep(ctx, index, step)

		if step.Type == StepVerdict {
			e.verdict.Store(true)
		}

		select {
		case <-ctx.Done():
			return
		case <-e.stopped:
			return
		default:
		}
	}
}

// waitForWork blocks until a step is appended, a failure arrives, or the
// idle timer fires. Returns false when the engine should exit.
func (e *Engine) waitForWork(ctx context.Context, idle *time.Timer) bool {
	if !idle.Stop() {
		select {
		case <-idle.C:
		default:
		}
	}
	idle.Reset(e.timings.IdleWait)

	select {
	case <-ctx.Done():
		return false
	case <-e.stopped:
		return false
	case <-e.queue.Notify():
		return true
	case <-idle.C:
		return true
	case msg := <-e.fail:
		// push back for the main loop to handle
		e.Fail(msg)
		return true
	}
}

func (e *Engine) checkFailed() (string, bool) {
	select {
	case msg := <-e.fail:
		return msg, true
	default:
		return "", false
	}
}

// runStep drives one step from acquisition through the finishing delay.
func (e *Engine) runStep(ctx context.Context, index int, step *Step) {
	// A skip buffered while the engine was idle belongs to no step;
	// drop it so it cannot cut this one short before it is shown.
	select {
	case <-e.skip:
	default:
	}

	e.processing.Store(true)
	defer e.processing.Store(false)

	e.state.Store(int32(StateAcquiring))
	e.display.StepStarted(step)

	asset, skipped := e.acquire(ctx, index, step)
	if skipped {
		e.finishStep(ctx, step, step.Text, e.timings.SkipDelay)
		return
	}

	if asset == nil || len(asset.Timestamps) == 0 {
		// Narration failed or carries no usable timing: reveal the full
		// text immediately and advance after the longer fallback delay,
		// with no audio played.
		e.finishStep(ctx, step, step.Text, e.timings.FallbackDelay)
		return
	}

	e.prefetch(ctx, index+1)

	handle, err := e.player.Play(ctx, asset.Audio)
	if err != nil {
		e.logger.WithError(err).WithField("step", index).Warn("Audio playback unavailable, falling back to text")
		e.finishStep(ctx, step, step.Text, e.timings.FallbackDelay)
		return
	}

	e.state.Store(int32(StatePlaying))
	delay := e.playSynced(ctx, step, asset, handle)
	e.finishStep(ctx, step, JoinWords(asset.Timestamps), delay)
}

// acquire fetches narration for the step, honoring skip requests while the
// fetch is in flight. Returns skipped=true when the user skipped; the fetch
// keeps running in the background and lands in the cache.
func (e *Engine) acquire(ctx context.Context, index int, step *Step) (*narration.Asset, bool) {
	if e.player == nil {
		return nil, false
	}

	type fetchResult struct {
		asset *narration.Asset
		err   error
	}
	resultCh := make(chan fetchResult, 1)
	go func() {
		asset, err := e.fetcher.Get(ctx, index, step)
		resultCh <- fetchResult{asset, err}
	}()

	select {
	case <-ctx.Done():
		return nil, false
	case <-e.stopped:
		return nil, false
	case <-e.skip:
		return nil, true
	case result := <-resultCh:
		if result.err != nil {
			e.logger.WithError(result.err).WithField("step", index).Warn("Narration acquisition failed, falling back to text")
			return nil, false
		}
		return result.asset, false
	}
}

// playSynced reveals text word-by-word against the audio position until the
// audio ends, errors, or the user skips. Returns the delay to hold before
// advancing.
func (e *Engine) playSynced(ctx context.Context, step *Step, asset *narration.Asset, handle PlaybackHandle) time.Duration {
	ticker := time.NewTicker(e.timings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			handle.Stop()
			return 0
		case <-e.stopped:
			handle.Stop()
			return 0
		case <-e.skip:
			handle.Stop()
			return e.timings.SkipDelay
		case err := <-handle.Done():
			if err != nil {
				e.logger.WithError(err).Warn("Audio playback error mid-stream")
				return e.timings.ErrorDelay
			}
			return e.timings.FinishDelay
		case <-ticker.C:
			position := handle.Position().Seconds()
			e.display.RevealText(RevealAt(asset.Timestamps, position))
		}
	}
}

// finishStep reveals the final text, holds for the given delay (still
// honoring skip to shorten the hold), and returns the engine to idle.
func (e *Engine) finishStep(ctx context.Context, step *Step, text string, delay time.Duration) {
	e.state.Store(int32(StateFinishing))
	e.display.RevealText(text)

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-e.stopped:
		case <-e.skip:
		case <-timer.C:
		}
	}

	e.display.StepFinished(step)
	e.state.Store(int32(StateIdle))
}

// prefetch begins acquiring narration for the next queued steps in the
// background. The fetcher's serialization keeps this within the
// one-outstanding-request budget.
func (e *Engine) prefetch(ctx context.Context, fromIndex int) {
	if e.player == nil || e.timings.PrefetchDepth <= 0 {
		return
	}

	steps, indices := e.queue.Upcoming(e.timings.PrefetchDepth)
	if len(steps) == 0 {
		return
	}

	go func() {
		for i, step := range steps {
			index := indices[i]
			if index < fromIndex || e.fetcher.Cached(index) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-e.stopped:
				return
			default:
			}
			if _, err := e.fetcher.Get(ctx, index, step); err != nil {
				e.logger.WithError(err).WithField("step", index).Debug("Prefetch failed")
			}
		}
	}()
}
