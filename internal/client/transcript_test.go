package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/narration"
	"github.com/pixelcourt/pixelcourt/internal/playback"
)

func TestFormatTranscript(t *testing.T) {
	factors := sampleFactors()
	transcript := []*playback.Step{
		NewFactorAnnouncementStep(factors),
		NewFactorStartStep(factors[0], 0),
		NewTurnStep(models.DebateTurn{
			Role: models.RoleSupport, FactorID: "factor-1", Round: 1,
			Thesis: "The plan held.", Reasoning: "Milestones were met.",
		}, "Planning", 1, 2),
		NewTurnStep(models.DebateTurn{
			Role: models.RoleOppose, FactorID: "factor-1", Round: 1,
			Thesis: "The plan slipped.", Reasoning: "Two deadlines moved.",
		}, "Planning", 1, 2),
	}
	synthesis := &models.Synthesis{
		OverallSummary:  "A split decision.",
		WhatWorked:      []string{"milestones"},
		WhatFailed:      []string{"deadlines"},
		RootCauses:      []string{"optimistic estimates"},
		Recommendations: []string{"buffer the schedule"},
		PerFactor: []models.FactorVerdict{{
			FactorID: "factor-1", FactorName: "Planning",
			SummarySupport: "held", SummaryOppose: "slipped", Verdict: "mixed",
		}},
	}

	completed := map[string]bool{"factor-1": true}
	md := FormatTranscript(factors, completed, transcript, synthesis)

	assert.Contains(t, md, "# Pixel Court Deliberation Report")
	assert.Contains(t, md, "1. **Planning**: How the work was planned. *(deliberation complete)*")
	assert.Contains(t, md, "2. **Rollout**: How the launch was handled.\n")
	assert.NotContains(t, md, "Rollout**: How the launch was handled. *(deliberation complete)*")
	assert.Contains(t, md, "### Factor: Planning")
	assert.Contains(t, md, "#### Round 1")
	assert.Contains(t, md, "**SUPPORT**:\n\n> The plan held. Milestones were met.")
	assert.Contains(t, md, "**OPPOSE**:\n\n> The plan slipped. Two deadlines moved.")
	assert.Contains(t, md, "## Final Verdict")
	assert.Contains(t, md, "A split decision.")
	assert.Contains(t, md, "- buffer the schedule")
	assert.Contains(t, md, "**Verdict:** mixed")
}

func TestFormatTranscript_NoSynthesis(t *testing.T) {
	md := FormatTranscript(sampleFactors(), nil, nil, nil)

	assert.Contains(t, md, "## Deliberation Transcript")
	assert.NotContains(t, md, "## Final Verdict")
}

func TestSpeakerLabel(t *testing.T) {
	assert.Equal(t, "**JUDGE**", speakerLabel(narration.RoleJudge))
	assert.Equal(t, "**SUPPORT**", speakerLabel(narration.RoleSupport))
	assert.Equal(t, "**OPPOSE**", speakerLabel(narration.RoleOppose))
	assert.Equal(t, "**SYSTEM**", speakerLabel(narration.SpeakerRole("other")))
}
