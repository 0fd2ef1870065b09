// Package agents implements the four generation collaborators of the
// deliberation pipeline: factor extraction, the support and oppose arguers,
// and the final synthesizer. Each is a pure request/response call on top of
// an llm.Provider; the orchestrator owns sequencing and history.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/llm"
	"github.com/pixelcourt/pixelcourt/internal/models"
)

// FactorExtractor identifies the debatable factors in a document. The
// returned list is ordered; a zero-length list is valid for documents with
// nothing worth debating.
type FactorExtractor interface {
	ExtractFactors(ctx context.Context, documentText string) ([]models.Factor, error)
}

// TurnRequest carries everything an arguer needs for one turn: the document,
// the factor under debate, and the full prior turn history for that factor.
type TurnRequest struct {
	DocumentText string
	AllFactors   []models.Factor
	Factor       models.Factor
	PriorTurns   []models.DebateTurn
	Round        int
}

// Arguer produces one debate turn for its side.
type Arguer interface {
	GenerateTurn(ctx context.Context, req TurnRequest) (*models.DebateTurn, error)
}

// SynthesisRequest carries the complete debate record for the final ruling.
type SynthesisRequest struct {
	DocumentText string
	Factors      []models.Factor
	Debates      []models.FactorDebate
}

// Synthesizer weighs all debates and produces the final synthesis.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*models.Synthesis, error)
}

// Extractor is the LLM-backed FactorExtractor.
type Extractor struct {
	provider llm.Provider
	logger   *logrus.Logger
}

// NewExtractor creates a factor extractor on top of the given provider.
func NewExtractor(provider llm.Provider, logger *logrus.Logger) *Extractor {
	return &Extractor{provider: provider, logger: logger}
}

type factorsEnvelope struct {
	Factors []models.Factor `json:"factors"`
}

// ExtractFactors runs a single extraction call and returns the ordered
// factor list. Missing factor IDs are assigned locally so downstream stages
// can always key on them.
func (e *Extractor) ExtractFactors(ctx context.Context, documentText string) ([]models.Factor, error) {
	resp, err := e.provider.Complete(ctx, &llm.Request{
		System:     factorSystemPrompt,
		Prompt:     "Document:\n\n" + documentText,
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("factor extraction call: %w", err)
	}

	var envelope factorsEnvelope
	if err := decodeJSONOutput(resp.Content, &envelope); err != nil {
		return nil, fmt.Errorf("parsing factor list: %w", err)
	}

	for i := range envelope.Factors {
		if envelope.Factors[i].ID == "" {
			envelope.Factors[i].ID = "factor-" + uuid.New().String()[:8]
		}
	}

	e.logger.WithField("factors", len(envelope.Factors)).Info("Factors extracted")
	return envelope.Factors, nil
}

// DebateArguer is the LLM-backed Arguer for one side of the debate.
type DebateArguer struct {
	role     models.DebateRole
	provider llm.Provider
	logger   *logrus.Logger
}

// NewSupportArguer creates the arguer for the supporting side.
func NewSupportArguer(provider llm.Provider, logger *logrus.Logger) *DebateArguer {
	return &DebateArguer{role: models.RoleSupport, provider: provider, logger: logger}
}

// NewOpposeArguer creates the arguer for the opposing side.
func NewOpposeArguer(provider llm.Provider, logger *logrus.Logger) *DebateArguer {
	return &DebateArguer{role: models.RoleOppose, provider: provider, logger: logger}
}

type turnEnvelope struct {
	Thesis      string   `json:"thesis"`
	Reasoning   string   `json:"reasoning"`
	Evidence    []string `json:"evidence"`
	Concessions []string `json:"concessions"`
}

// GenerateTurn produces this side's argument for the given round,
// conditioned on the full prior turn history of the factor.
func (a *DebateArguer) GenerateTurn(ctx context.Context, req TurnRequest) (*models.DebateTurn, error) {
	system := supportSystemPrompt
	if a.role == models.RoleOppose {
		system = opposeSystemPrompt
	}

	resp, err := a.provider.Complete(ctx, &llm.Request{
		System:     system,
		Prompt:     buildTurnPrompt(req),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s turn call (factor %s, round %d): %w", a.role, req.Factor.ID, req.Round, err)
	}

	var envelope turnEnvelope
	if err := decodeJSONOutput(resp.Content, &envelope); err != nil {
		return nil, fmt.Errorf("parsing %s turn (factor %s, round %d): %w", a.role, req.Factor.ID, req.Round, err)
	}

	return &models.DebateTurn{
		Role:        a.role,
		FactorID:    req.Factor.ID,
		Round:       req.Round,
		Thesis:      envelope.Thesis,
		Reasoning:   envelope.Reasoning,
		Evidence:    envelope.Evidence,
		Concessions: envelope.Concessions,
	}, nil
}

func buildTurnPrompt(req TurnRequest) string {
	var sb strings.Builder

	sb.WriteString("Document:\n\n")
	sb.WriteString(req.DocumentText)
	sb.WriteString("\n\nAll factors under deliberation:\n")
	for i, f := range req.AllFactors {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, f.Name, f.Description)
	}

	fmt.Fprintf(&sb, "\nFactor under debate: %s - %s\n", req.Factor.Name, req.Factor.Description)
	fmt.Fprintf(&sb, "This is round %d.\n", req.Round)

	if len(req.PriorTurns) == 0 {
		sb.WriteString("\nNo prior turns; open the debate for your side.\n")
		return sb.String()
	}

	sb.WriteString("\nDebate so far on this factor:\n")
	for _, turn := range req.PriorTurns {
		fmt.Fprintf(&sb, "[%s, round %d] %s %s\n", strings.ToUpper(string(turn.Role)), turn.Round, turn.Thesis, turn.Reasoning)
	}
	sb.WriteString("\nRespond to the arguments above for your side.\n")

	return sb.String()
}

// JudgeSynthesizer is the LLM-backed Synthesizer.
type JudgeSynthesizer struct {
	provider llm.Provider
	logger   *logrus.Logger
}

// NewSynthesizer creates the closing-synthesis agent.
func NewSynthesizer(provider llm.Provider, logger *logrus.Logger) *JudgeSynthesizer {
	return &JudgeSynthesizer{provider: provider, logger: logger}
}

// Synthesize runs the single closing call over the whole debate record.
func (s *JudgeSynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*models.Synthesis, error) {
	resp, err := s.provider.Complete(ctx, &llm.Request{
		System:     synthesisSystemPrompt,
		Prompt:     buildSynthesisPrompt(req),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis call: %w", err)
	}

	var synthesis models.Synthesis
	if err := decodeJSONOutput(resp.Content, &synthesis); err != nil {
		return nil, fmt.Errorf("parsing synthesis: %w", err)
	}

	s.logger.WithField("per_factor", len(synthesis.PerFactor)).Info("Synthesis generated")
	return &synthesis, nil
}

func buildSynthesisPrompt(req SynthesisRequest) string {
	var sb strings.Builder

	sb.WriteString("Document:\n\n")
	sb.WriteString(req.DocumentText)

	sb.WriteString("\n\nFactors deliberated:\n")
	for i, f := range req.Factors {
		fmt.Fprintf(&sb, "%d. %s (%s): %s\n", i+1, f.Name, f.ID, f.Description)
	}

	sb.WriteString("\nFull debate record:\n")
	for _, debate := range req.Debates {
		fmt.Fprintf(&sb, "\n== Factor: %s ==\n", debate.Factor.Name)
		for _, turn := range debate.Turns {
			fmt.Fprintf(&sb, "[%s, round %d] %s %s\n", strings.ToUpper(string(turn.Role)), turn.Round, turn.Thesis, turn.Reasoning)
		}
	}

	sb.WriteString("\nDeliver the final synthesis.\n")
	return sb.String()
}

// decodeJSONOutput parses model output that should be a bare JSON object but
// may arrive wrapped in a markdown code fence.
func decodeJSONOutput(content string, v interface{}) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	// Models occasionally preface the object with prose; recover the
	// outermost object if direct decoding fails.
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start >= 0 && end > start {
			return json.Unmarshal([]byte(trimmed[start:end+1]), v)
		}
		return err
	}
	return nil
}
