// Package events provides the per-job broadcast channel between the
// orchestrator and subscribed sessions. Delivery is fan-out, at-most-once,
// and join-scoped: a session only sees events emitted after it joined, and
// there is no replay buffer.
package events

import (
	"encoding/json"

	"github.com/pixelcourt/pixelcourt/internal/models"
)

// Type identifies an event on the wire.
type Type string

const (
	TypeStatus            Type = "status"
	TypeFactorsExtracted  Type = "factors-extracted"
	TypeFactorStarted     Type = "factor-started"
	TypeSupportTurn       Type = "support-turn"
	TypeOpposeTurn        Type = "oppose-turn"
	TypeFactorComplete    Type = "factor-complete"
	TypeSynthesisComplete Type = "synthesis-complete"
	TypeError             Type = "error"
)

// Coarse pipeline statuses carried by TypeStatus events.
const (
	StatusExtractingFactors = "extracting-factors"
	StatusDebating          = "debating"
	StatusGeneratingSupport = "generating-support"
	StatusGeneratingOppose  = "generating-oppose"
	StatusSynthesizing      = "synthesizing"
	StatusComplete          = "complete"
)

// Event is the wire unit emitted by the orchestrator. Emission order is the
// authoritative order; there is no sequence number because emission is
// single-threaded per job.
type Event struct {
	Type    Type        `json:"type"`
	JobID   string      `json:"jobId"`
	Payload interface{} `json:"payload"`
}

// Envelope is the decode-side counterpart of Event: the payload stays raw
// until the type is known.
type Envelope struct {
	Type    Type            `json:"type"`
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

// StatusPayload reports coarse liveness. FactorID and Round are only set
// while a specific turn is being generated.
type StatusPayload struct {
	Status   string `json:"status"`
	FactorID string `json:"factorId,omitempty"`
	Round    int    `json:"round,omitempty"`
}

// FactorsExtractedPayload carries the complete, final factor list. An empty
// list is valid and means the debate stages are skipped.
type FactorsExtractedPayload struct {
	Factors []models.Factor `json:"factors"`
}

// FactorStartedPayload announces the opening of one factor's debate.
type FactorStartedPayload struct {
	FactorID   string `json:"factorId"`
	FactorName string `json:"factorName"`
}

// TurnPayload carries one debate turn, emitted for both sides.
type TurnPayload struct {
	FactorID   string            `json:"factorId"`
	FactorName string            `json:"factorName"`
	Round      int               `json:"round"`
	Data       models.DebateTurn `json:"data"`
}

// FactorCompletePayload closes one factor's debate.
type FactorCompletePayload struct {
	FactorID string `json:"factorId"`
}

// SynthesisCompletePayload carries the final ruling.
type SynthesisCompletePayload struct {
	Synthesis models.Synthesis `json:"synthesis"`
}

// ErrorPayload is terminal for the job's stream.
type ErrorPayload struct {
	Message string `json:"message"`
}
