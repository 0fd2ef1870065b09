package models

import "time"

// JobState represents the lifecycle stage of a deliberation job.
type JobState string

const (
	JobStatePending      JobState = "pending"
	JobStateExtracting   JobState = "extracting"
	JobStateDebating     JobState = "debating"
	JobStateSynthesizing JobState = "synthesizing"
	JobStateComplete     JobState = "complete"
	JobStateFailed       JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobStateComplete || s == JobStateFailed
}

// Job is one end-to-end pipeline run over one document. A job is created on
// submission and mutated only by its owning orchestrator run.
type Job struct {
	ID              string     `json:"id"`
	State           JobState   `json:"state"`
	RoundsPerFactor int        `json:"roundsPerFactor"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Result          *JobResult `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool {
	return j.State.Terminal()
}

// JobResult holds the full output of a completed job.
type JobResult struct {
	Factors   []Factor       `json:"factors"`
	Debates   []FactorDebate `json:"debates"`
	Synthesis *Synthesis     `json:"synthesis"`
}

// Factor is a debatable theme extracted from the document. The factor list
// is produced once by the extraction stage and never mutated afterward; its
// order is the debate order.
type Factor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"`
}

// DebateRole identifies which side a turn argues for.
type DebateRole string

const (
	RoleSupport DebateRole = "support"
	RoleOppose  DebateRole = "oppose"
)

// DebateTurn is a single argument in a factor's debate. Turns alternate
// strictly: for every round, support speaks before oppose.
type DebateTurn struct {
	Role        DebateRole `json:"role"`
	FactorID    string     `json:"factorId"`
	Round       int        `json:"round"`
	Thesis      string     `json:"thesis"`
	Reasoning   string     `json:"reasoning"`
	Evidence    []string   `json:"evidence,omitempty"`
	Concessions []string   `json:"concessions,omitempty"`
}

// FactorDebate groups the full turn history for one factor.
type FactorDebate struct {
	Factor Factor       `json:"factor"`
	Turns  []DebateTurn `json:"turns"`
}

// FactorVerdict is the synthesizer's ruling on a single factor.
type FactorVerdict struct {
	FactorID       string `json:"factorId"`
	FactorName     string `json:"factorName"`
	SummarySupport string `json:"summarySupport"`
	SummaryOppose  string `json:"summaryOppose"`
	Verdict        string `json:"verdict"`
}

// Synthesis is the final cross-factor analysis, produced exactly once after
// every factor's debate has completed.
type Synthesis struct {
	OverallSummary  string          `json:"overallSummary"`
	WhatWorked      []string        `json:"whatWorked"`
	WhatFailed      []string        `json:"whatFailed"`
	RootCauses      []string        `json:"rootCauses"`
	Recommendations []string        `json:"recommendations"`
	PerFactor       []FactorVerdict `json:"perFactor"`
}
