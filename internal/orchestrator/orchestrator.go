// Package orchestrator runs the deliberation pipeline for one job: factor
// extraction, alternating support/oppose debate rounds per factor, and the
// closing synthesis. Stages run strictly in sequence because every turn is
// conditioned on the full prior history of its factor; parallelizing would
// break the causal chain of arguments.
package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/agents"
	"github.com/pixelcourt/pixelcourt/internal/events"
	"github.com/pixelcourt/pixelcourt/internal/metrics"
	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/registry"
)

// Orchestrator owns the pipeline for all jobs. Each job gets exactly one
// Run call, which is the sole writer of that job's registry entry.
type Orchestrator struct {
	registry    *registry.Registry
	hub         *events.Hub
	extractor   agents.FactorExtractor
	support     agents.Arguer
	oppose      agents.Arguer
	synthesizer agents.Synthesizer
	collector   *metrics.Collector
	logger      *logrus.Logger
}

// New wires the orchestrator. collector may be nil in tests.
func New(
	reg *registry.Registry,
	hub *events.Hub,
	extractor agents.FactorExtractor,
	support agents.Arguer,
	oppose agents.Arguer,
	synthesizer agents.Synthesizer,
	collector *metrics.Collector,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:    reg,
		hub:         hub,
		extractor:   extractor,
		support:     support,
		oppose:      oppose,
		synthesizer: synthesizer,
		collector:   collector,
		logger:      logger,
	}
}

// Run executes the full pipeline for one job. It is expected to be called in
// its own goroutine; the pipeline keeps running to completion or failure
// regardless of whether any session is watching.
func (o *Orchestrator) Run(ctx context.Context, jobID, documentText string, roundsPerFactor int) {
	start := time.Now()
	log := o.logger.WithField("job_id", jobID)

	if o.collector != nil {
		o.collector.JobsActive.Inc()
		defer o.collector.JobsActive.Dec()
	}

	result, err := o.runPipeline(ctx, jobID, documentText, roundsPerFactor, log)
	now := time.Now()

	if err != nil {
		log.WithError(err).Error("Pipeline failed")
		o.emit(jobID, events.TypeError, events.ErrorPayload{Message: err.Error()})
		_ = o.registry.Update(jobID, func(job *models.Job) {
			job.State = models.JobStateFailed
			job.Error = err.Error()
			job.CompletedAt = &now
		})
		if o.collector != nil {
			o.collector.JobsCompleted.WithLabelValues(string(models.JobStateFailed)).Inc()
		}
		return
	}

	_ = o.registry.Update(jobID, func(job *models.Job) {
		job.State = models.JobStateComplete
		job.Result = result
		job.CompletedAt = &now
	})

	if o.collector != nil {
		o.collector.JobsCompleted.WithLabelValues(string(models.JobStateComplete)).Inc()
		o.collector.JobDuration.Observe(time.Since(start).Seconds())
	}
	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("Pipeline complete")
}

// runPipeline executes the stages in causal order. Any agent failure aborts
// the remaining stages immediately; a debate with a missing stage is not
// meaningful, so there is no retry and no resumption.
func (o *Orchestrator) runPipeline(
	ctx context.Context,
	jobID, documentText string,
	roundsPerFactor int,
	log *logrus.Entry,
) (*models.JobResult, error) {
	// Stage 1: factor extraction.
	o.setState(jobID, models.JobStateExtracting)
	o.emit(jobID, events.TypeStatus, events.StatusPayload{Status: events.StatusExtractingFactors})

	stageStart := time.Now()
	factors, err := o.extractor.ExtractFactors(ctx, documentText)
	if err != nil {
		o.countAgentError("extracting")
		return nil, err
	}
	o.observeStage("extracting", stageStart)

	// An empty factor list is not an error; the debate loop simply runs
	// zero times and only the synthesis stage remains.
	o.emit(jobID, events.TypeFactorsExtracted, events.FactorsExtractedPayload{Factors: factors})
	log.WithField("factors", len(factors)).Info("Extraction stage complete")

	// Stage 2: per-factor debates, support before oppose every round.
	o.setState(jobID, models.JobStateDebating)
	o.emit(jobID, events.TypeStatus, events.StatusPayload{Status: events.StatusDebating})

	debates := make([]models.FactorDebate, 0, len(factors))
	for _, factor := range factors {
		o.emit(jobID, events.TypeFactorStarted, events.FactorStartedPayload{
			FactorID:   factor.ID,
			FactorName: factor.Name,
		})

		history := make([]models.DebateTurn, 0, 2*roundsPerFactor)
		for round := 1; round <= roundsPerFactor; round++ {
			roundStart := time.Now()

			o.emit(jobID, events.TypeStatus, events.StatusPayload{
				Status:   events.StatusGeneratingSupport,
				FactorID: factor.ID,
				Round:    round,
			})
			supportTurn, err := o.support.GenerateTurn(ctx, agents.TurnRequest{
				DocumentText: documentText,
				AllFactors:   factors,
				Factor:       factor,
				PriorTurns:   history,
				Round:        round,
			})
			if err != nil {
				o.countAgentError("debating")
				return nil, err
			}
			history = append(history, *supportTurn)
			o.countTurn(models.RoleSupport)
			o.emit(jobID, events.TypeSupportTurn, events.TurnPayload{
				FactorID:   factor.ID,
				FactorName: factor.Name,
				Round:      round,
				Data:       *supportTurn,
			})

			o.emit(jobID, events.TypeStatus, events.StatusPayload{
				Status:   events.StatusGeneratingOppose,
				FactorID: factor.ID,
				Round:    round,
			})
			opposeTurn, err := o.oppose.GenerateTurn(ctx, agents.TurnRequest{
				DocumentText: documentText,
				AllFactors:   factors,
				Factor:       factor,
				PriorTurns:   history,
				Round:        round,
			})
			if err != nil {
				o.countAgentError("debating")
				return nil, err
			}
			history = append(history, *opposeTurn)
			o.countTurn(models.RoleOppose)
			o.emit(jobID, events.TypeOpposeTurn, events.TurnPayload{
				FactorID:   factor.ID,
				FactorName: factor.Name,
				Round:      round,
				Data:       *opposeTurn,
			})

			o.observeStage("debate-round", roundStart)
		}

		debates = append(debates, models.FactorDebate{Factor: factor, Turns: history})
		o.emit(jobID, events.TypeFactorComplete, events.FactorCompletePayload{FactorID: factor.ID})
		log.WithFields(logrus.Fields{
			"factor_id": factor.ID,
			"turns":     len(history),
		}).Info("Factor debate complete")
	}

	// Stage 3: synthesis over the full nested debate history.
	o.setState(jobID, models.JobStateSynthesizing)
	o.emit(jobID, events.TypeStatus, events.StatusPayload{Status: events.StatusSynthesizing})

	stageStart = time.Now()
	synthesis, err := o.synthesizer.Synthesize(ctx, agents.SynthesisRequest{
		DocumentText: documentText,
		Factors:      factors,
		Debates:      debates,
	})
	if err != nil {
		o.countAgentError("synthesizing")
		return nil, err
	}
	o.observeStage("synthesizing", stageStart)

	o.emit(jobID, events.TypeSynthesisComplete, events.SynthesisCompletePayload{Synthesis: *synthesis})
	o.emit(jobID, events.TypeStatus, events.StatusPayload{Status: events.StatusComplete})

	return &models.JobResult{
		Factors:   factors,
		Debates:   debates,
		Synthesis: synthesis,
	}, nil
}

func (o *Orchestrator) setState(jobID string, state models.JobState) {
	_ = o.registry.Update(jobID, func(job *models.Job) {
		job.State = state
	})
}

func (o *Orchestrator) emit(jobID string, typ events.Type, payload interface{}) {
	o.hub.Emit(&events.Event{Type: typ, JobID: jobID, Payload: payload})
	if o.collector != nil {
		o.collector.EventsEmitted.WithLabelValues(string(typ)).Inc()
	}
}

func (o *Orchestrator) observeStage(stage string, start time.Time) {
	if o.collector != nil {
		o.collector.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (o *Orchestrator) countTurn(role models.DebateRole) {
	if o.collector != nil {
		o.collector.TurnsGenerated.WithLabelValues(string(role)).Inc()
	}
}

func (o *Orchestrator) countAgentError(stage string) {
	if o.collector != nil {
		o.collector.AgentErrors.WithLabelValues(stage).Inc()
	}
}
