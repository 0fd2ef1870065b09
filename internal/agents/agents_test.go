package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelcourt/pixelcourt/internal/llm"
	"github.com/pixelcourt/pixelcourt/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// canned is an llm.Provider returning a fixed response while recording the
// last request.
type canned struct {
	content string
	err     error
	lastReq *llm.Request
}

func (c *canned) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Content: c.content}, nil
}

func (c *canned) Name() string { return "canned" }

func TestDecodeJSONOutput_Bare(t *testing.T) {
	var out map[string]string
	err := decodeJSONOutput(`{"key": "value"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "value", out["key"])
}

func TestDecodeJSONOutput_CodeFence(t *testing.T) {
	content := "```json\n{\"key\": \"value\"}\n```"
	var out map[string]string
	err := decodeJSONOutput(content, &out)
	require.NoError(t, err)
	assert.Equal(t, "value", out["key"])
}

func TestDecodeJSONOutput_FenceWithoutLanguage(t *testing.T) {
	content := "```\n{\"key\": \"value\"}\n```"
	var out map[string]string
	err := decodeJSONOutput(content, &out)
	require.NoError(t, err)
	assert.Equal(t, "value", out["key"])
}

func TestDecodeJSONOutput_ProsePreface(t *testing.T) {
	content := `Here is the requested analysis: {"key": "value"} Hope that helps!`
	var out map[string]string
	err := decodeJSONOutput(content, &out)
	require.NoError(t, err)
	assert.Equal(t, "value", out["key"])
}

func TestDecodeJSONOutput_Garbage(t *testing.T) {
	var out map[string]string
	err := decodeJSONOutput("not json at all", &out)
	assert.Error(t, err)
}

func TestExtractor_AssignsMissingIDs(t *testing.T) {
	provider := &canned{content: `{"factors": [
		{"name": "Planning", "description": "How the work was planned"},
		{"id": "factor-keep", "name": "Testing", "description": "Coverage"}
	]}`}
	extractor := NewExtractor(provider, testLogger())

	factors, err := extractor.ExtractFactors(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, factors, 2)
	assert.NotEmpty(t, factors[0].ID)
	assert.Equal(t, "factor-keep", factors[1].ID)

	require.NotNil(t, provider.lastReq)
	assert.True(t, provider.lastReq.JSONOutput)
}

func TestExtractor_EmptyFactorList(t *testing.T) {
	provider := &canned{content: `{"factors": []}`}
	extractor := NewExtractor(provider, testLogger())

	factors, err := extractor.ExtractFactors(context.Background(), "doc")
	require.NoError(t, err)
	assert.Empty(t, factors)
}

func TestDebateArguer_GenerateTurn(t *testing.T) {
	provider := &canned{content: `{
		"thesis": "The rollout plan was sound.",
		"reasoning": "Each stage had a rollback path.",
		"evidence": ["staged deploys"],
		"concessions": ["communication lagged"]
	}`}
	arguer := NewSupportArguer(provider, testLogger())

	turn, err := arguer.GenerateTurn(context.Background(), TurnRequest{
		DocumentText: "doc",
		Factor:       models.Factor{ID: "factor-1", Name: "Rollout", Description: "launch handling"},
		Round:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleSupport, turn.Role)
	assert.Equal(t, "factor-1", turn.FactorID)
	assert.Equal(t, 1, turn.Round)
	assert.Equal(t, "The rollout plan was sound.", turn.Thesis)
	assert.Equal(t, []string{"staged deploys"}, turn.Evidence)
	assert.Equal(t, []string{"communication lagged"}, turn.Concessions)
}

func TestDebateArguer_OpposeUsesOpposePrompt(t *testing.T) {
	provider := &canned{content: `{"thesis": "t", "reasoning": "r"}`}
	arguer := NewOpposeArguer(provider, testLogger())

	turn, err := arguer.GenerateTurn(context.Background(), TurnRequest{
		Factor: models.Factor{ID: "factor-1"},
		Round:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOppose, turn.Role)
	assert.Equal(t, opposeSystemPrompt, provider.lastReq.System)
}

func TestBuildTurnPrompt_FirstRound(t *testing.T) {
	prompt := buildTurnPrompt(TurnRequest{
		DocumentText: "the document",
		AllFactors:   []models.Factor{{Name: "Rollout", Description: "launch handling"}},
		Factor:       models.Factor{Name: "Rollout", Description: "launch handling"},
		Round:        1,
	})

	assert.Contains(t, prompt, "the document")
	assert.Contains(t, prompt, "Rollout")
	assert.Contains(t, prompt, "No prior turns")
}

func TestBuildTurnPrompt_IncludesHistory(t *testing.T) {
	prompt := buildTurnPrompt(TurnRequest{
		DocumentText: "the document",
		Factor:       models.Factor{ID: "factor-1", Name: "Rollout"},
		PriorTurns: []models.DebateTurn{
			{Role: models.RoleSupport, Round: 1, Thesis: "it went well", Reasoning: "metrics held"},
		},
		Round: 1,
	})

	assert.Contains(t, prompt, "SUPPORT")
	assert.Contains(t, prompt, "it went well")
	assert.NotContains(t, prompt, "No prior turns")
}

func TestJudgeSynthesizer_Synthesize(t *testing.T) {
	provider := &canned{content: `{
		"overallSummary": "A close ruling.",
		"whatWorked": ["planning"],
		"whatFailed": ["comms"],
		"rootCauses": ["time pressure"],
		"recommendations": ["slow down"],
		"perFactor": [{
			"factorId": "factor-1",
			"factorName": "Rollout",
			"summarySupport": "solid",
			"summaryOppose": "rushed",
			"verdict": "mixed"
		}]
	}`}
	synthesizer := NewSynthesizer(provider, testLogger())

	synthesis, err := synthesizer.Synthesize(context.Background(), SynthesisRequest{
		DocumentText: "doc",
		Factors:      []models.Factor{{ID: "factor-1", Name: "Rollout"}},
		Debates: []models.FactorDebate{{
			Factor: models.Factor{ID: "factor-1", Name: "Rollout"},
			Turns:  []models.DebateTurn{{Role: models.RoleSupport, Round: 1, Thesis: "t", Reasoning: "r"}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "A close ruling.", synthesis.OverallSummary)
	require.Len(t, synthesis.PerFactor, 1)
	assert.Equal(t, "mixed", synthesis.PerFactor[0].Verdict)

	// The synthesis prompt carries the full debate record.
	assert.True(t, strings.Contains(provider.lastReq.Prompt, "== Factor: Rollout =="))
}
