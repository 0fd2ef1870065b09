package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelcourt/pixelcourt/internal/agents"
	"github.com/pixelcourt/pixelcourt/internal/events"
	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/registry"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type stubExtractor struct {
	factors []models.Factor
	err     error
}

func (s *stubExtractor) ExtractFactors(ctx context.Context, documentText string) ([]models.Factor, error) {
	return s.factors, s.err
}

type stubArguer struct {
	role  models.DebateRole
	err   error
	calls int
}

func (s *stubArguer) GenerateTurn(ctx context.Context, req agents.TurnRequest) (*models.DebateTurn, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.DebateTurn{
		Role:      s.role,
		FactorID:  req.Factor.ID,
		Round:     req.Round,
		Thesis:    fmt.Sprintf("%s thesis for %s round %d", s.role, req.Factor.ID, req.Round),
		Reasoning: "because the evidence says so",
	}, nil
}

type stubSynthesizer struct {
	err   error
	calls int
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, req agents.SynthesisRequest) (*models.Synthesis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Synthesis{
		OverallSummary:  "a measured ruling",
		WhatWorked:      []string{"the architecture"},
		WhatFailed:      []string{"the rollout"},
		RootCauses:      []string{"missing ownership"},
		Recommendations: []string{"assign an owner"},
	}, nil
}

type fixture struct {
	reg   *registry.Registry
	hub   *events.Hub
	orch  *Orchestrator
	sub   *events.Subscription
	jobID string
}

func newFixture(t *testing.T, extractor agents.FactorExtractor, support, oppose agents.Arguer, synthesizer agents.Synthesizer) *fixture {
	t.Helper()

	reg := registry.New(time.Hour, testLogger())
	hub := events.NewHub(&events.HubConfig{BufferSize: 1024, PublishTimeout: 10 * time.Millisecond}, testLogger())
	t.Cleanup(func() { hub.Close() })

	jobID := "job-test"
	reg.Create(&models.Job{
		ID:              jobID,
		State:           models.JobStatePending,
		RoundsPerFactor: 2,
		CreatedAt:       time.Now(),
	})

	return &fixture{
		reg:   reg,
		hub:   hub,
		orch:  New(reg, hub, extractor, support, oppose, synthesizer, nil, testLogger()),
		sub:   hub.Join(jobID),
		jobID: jobID,
	}
}

func (f *fixture) drainEvents() []*events.Event {
	var got []*events.Event
	for {
		select {
		case ev := <-f.sub.C:
			got = append(got, ev)
		default:
			return got
		}
	}
}

func twoFactors() []models.Factor {
	return []models.Factor{
		{ID: "factor-1", Name: "Architecture", Description: "How the system was structured"},
		{ID: "factor-2", Name: "Rollout", Description: "How the launch was handled"},
	}
}

func TestOrchestrator_EventOrder(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	f := newFixture(t, &stubExtractor{factors: twoFactors()}, support, oppose, &stubSynthesizer{})

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	got := f.drainEvents()
	var types []events.Type
	for _, ev := range got {
		types = append(types, ev.Type)
	}

	perFactor := []events.Type{
		events.TypeFactorStarted,
		events.TypeStatus, events.TypeSupportTurn, events.TypeStatus, events.TypeOpposeTurn,
		events.TypeStatus, events.TypeSupportTurn, events.TypeStatus, events.TypeOpposeTurn,
		events.TypeFactorComplete,
	}
	want := []events.Type{events.TypeStatus, events.TypeFactorsExtracted, events.TypeStatus}
	want = append(want, perFactor...)
	want = append(want, perFactor...)
	want = append(want, events.TypeStatus, events.TypeSynthesisComplete, events.TypeStatus)

	assert.Equal(t, want, types)
}

func TestOrchestrator_TurnCount(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	f := newFixture(t, &stubExtractor{factors: twoFactors()}, support, oppose, &stubSynthesizer{})

	rounds := 3
	f.orch.Run(context.Background(), f.jobID, "the document", rounds)

	turnEvents := 0
	for _, ev := range f.drainEvents() {
		if ev.Type == events.TypeSupportTurn || ev.Type == events.TypeOpposeTurn {
			turnEvents++
		}
	}

	// 2 sides, 2 factors, 3 rounds each
	assert.Equal(t, 2*2*rounds, turnEvents)
	assert.Equal(t, 2*rounds, support.calls)
	assert.Equal(t, 2*rounds, oppose.calls)
}

func TestOrchestrator_SupportSpeaksFirstEachRound(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	f := newFixture(t, &stubExtractor{factors: twoFactors()[:1]}, support, oppose, &stubSynthesizer{})

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	var turns []events.TurnPayload
	var turnTypes []events.Type
	for _, ev := range f.drainEvents() {
		if ev.Type == events.TypeSupportTurn || ev.Type == events.TypeOpposeTurn {
			turnTypes = append(turnTypes, ev.Type)
			turns = append(turns, ev.Payload.(events.TurnPayload))
		}
	}

	require.Len(t, turns, 4)
	assert.Equal(t, []events.Type{
		events.TypeSupportTurn, events.TypeOpposeTurn,
		events.TypeSupportTurn, events.TypeOpposeTurn,
	}, turnTypes)
	assert.Equal(t, 1, turns[0].Round)
	assert.Equal(t, 1, turns[1].Round)
	assert.Equal(t, 2, turns[2].Round)
	assert.Equal(t, 2, turns[3].Round)
}

func TestOrchestrator_ArguersSeeFullHistory(t *testing.T) {
	var historyLens []int
	recorder := &recordingArguer{role: models.RoleSupport, historyLens: &historyLens}
	opposeRec := &recordingArguer{role: models.RoleOppose, historyLens: &historyLens}
	f := newFixture(t, &stubExtractor{factors: twoFactors()[:1]}, recorder, opposeRec, &stubSynthesizer{})

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	// support r1 sees 0 turns, oppose r1 sees 1, support r2 sees 2, oppose r2 sees 3
	assert.Equal(t, []int{0, 1, 2, 3}, historyLens)
}

type recordingArguer struct {
	role        models.DebateRole
	historyLens *[]int
}

func (r *recordingArguer) GenerateTurn(ctx context.Context, req agents.TurnRequest) (*models.DebateTurn, error) {
	*r.historyLens = append(*r.historyLens, len(req.PriorTurns))
	return &models.DebateTurn{Role: r.role, FactorID: req.Factor.ID, Round: req.Round, Thesis: "t", Reasoning: "r"}, nil
}

func TestOrchestrator_ZeroFactors(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	synth := &stubSynthesizer{}
	f := newFixture(t, &stubExtractor{factors: nil}, support, oppose, synth)

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	var types []events.Type
	for _, ev := range f.drainEvents() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []events.Type{
		events.TypeStatus,
		events.TypeFactorsExtracted,
		events.TypeStatus,
		events.TypeStatus,
		events.TypeSynthesisComplete,
		events.TypeStatus,
	}, types)

	assert.Zero(t, support.calls)
	assert.Zero(t, oppose.calls)
	assert.Equal(t, 1, synth.calls)

	job, err := f.reg.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateComplete, job.State)
}

func TestOrchestrator_Complete_StoresResult(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	f := newFixture(t, &stubExtractor{factors: twoFactors()}, support, oppose, &stubSynthesizer{})

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	job, err := f.reg.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateComplete, job.State)
	require.NotNil(t, job.CompletedAt)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Factors, 2)
	require.Len(t, job.Result.Debates, 2)
	assert.Len(t, job.Result.Debates[0].Turns, 4)
	require.NotNil(t, job.Result.Synthesis)
	assert.Equal(t, "a measured ruling", job.Result.Synthesis.OverallSummary)
}

func TestOrchestrator_ExtractionFailure(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	synth := &stubSynthesizer{}
	f := newFixture(t, &stubExtractor{err: errors.New("model unavailable")}, support, oppose, synth)

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	got := f.drainEvents()
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, events.TypeError, last.Type)
	assert.Equal(t, "model unavailable", last.Payload.(events.ErrorPayload).Message)

	assert.Zero(t, support.calls)
	assert.Zero(t, synth.calls)

	job, err := f.reg.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateFailed, job.State)
	assert.Equal(t, "model unavailable", job.Error)
	require.NotNil(t, job.CompletedAt)
	assert.Nil(t, job.Result)
}

func TestOrchestrator_DebateFailure_StopsPipeline(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose, err: errors.New("oppose agent failed")}
	synth := &stubSynthesizer{}
	f := newFixture(t, &stubExtractor{factors: twoFactors()}, support, oppose, synth)

	f.orch.Run(context.Background(), f.jobID, "the document", 2)

	// exactly one support turn was generated before the oppose failure
	assert.Equal(t, 1, support.calls)
	assert.Equal(t, 1, oppose.calls)
	assert.Zero(t, synth.calls)

	got := f.drainEvents()
	require.NotEmpty(t, got)
	assert.Equal(t, events.TypeError, got[len(got)-1].Type)

	job, err := f.reg.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateFailed, job.State)
}

func TestOrchestrator_SynthesisFailure(t *testing.T) {
	support := &stubArguer{role: models.RoleSupport}
	oppose := &stubArguer{role: models.RoleOppose}
	f := newFixture(t, &stubExtractor{factors: twoFactors()[:1]}, support, oppose,
		&stubSynthesizer{err: errors.New("synthesis failed")})

	f.orch.Run(context.Background(), f.jobID, "the document", 1)

	got := f.drainEvents()
	require.NotEmpty(t, got)
	assert.Equal(t, events.TypeError, got[len(got)-1].Type)

	job, err := f.reg.Get(f.jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateFailed, job.State)
	assert.Equal(t, "synthesis failed", job.Error)
}
