// Package client connects to a courtd server, follows one job's event
// stream, and translates the events into the ordered presentation steps the
// playback engine consumes.
package client

import (
	"fmt"
	"strings"

	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/narration"
	"github.com/pixelcourt/pixelcourt/internal/playback"
)

// NewFactorAnnouncementStep builds the judge's opening statement listing
// every factor under deliberation.
func NewFactorAnnouncementStep(factors []models.Factor) *playback.Step {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = fmt.Sprintf("%d. %s", i+1, f.Name)
	}
	text := fmt.Sprintf("Order in the court! We shall examine %d key factors today: %s. Let the deliberation begin!",
		len(factors), strings.Join(names, ", "))

	return &playback.Step{
		Speaker: narration.RoleJudge,
		Text:    text,
		Type:    playback.StepAnnouncement,
	}
}

// NewFactorStartStep builds the judge's introduction for one factor's
// debate. factorIndex is zero-based.
func NewFactorStartStep(factor models.Factor, factorIndex int) *playback.Step {
	text := fmt.Sprintf("Now commencing debate on Factor %d: %s. %s",
		factorIndex+1, factor.Name, factor.Description)

	return &playback.Step{
		Speaker: narration.RoleJudge,
		Text:    text,
		Type:    playback.StepAnnouncement,
		FactorInfo: &playback.FactorInfo{
			FactorID:   factor.ID,
			FactorName: factor.Name,
		},
	}
}

// NewTurnStep builds a debate-turn step for either side. The spoken text is
// the turn's thesis followed by its reasoning, untruncated.
func NewTurnStep(turn models.DebateTurn, factorName string, round, totalRounds int) *playback.Step {
	speaker := narration.RoleSupport
	if turn.Role == models.RoleOppose {
		speaker = narration.RoleOppose
	}

	return &playback.Step{
		Speaker:   speaker,
		Text:      fmt.Sprintf("%s %s", turn.Thesis, turn.Reasoning),
		Reasoning: turn.Reasoning,
		Type:      playback.StepDebateTurn,
		FactorInfo: &playback.FactorInfo{
			FactorID:    turn.FactorID,
			FactorName:  factorName,
			RoundNumber: round,
			TotalRounds: totalRounds,
		},
	}
}

// NewVerdictStep builds the judge's closing ruling from the full synthesis.
func NewVerdictStep(synthesis models.Synthesis) *playback.Step {
	text := fmt.Sprintf("After careful deliberation, this court has reached a verdict. %s Key successes include: %s. However, we identified concerns: %s. This court recommends: %s. Court is adjourned!",
		synthesis.OverallSummary,
		strings.Join(synthesis.WhatWorked, "; "),
		strings.Join(synthesis.WhatFailed, "; "),
		strings.Join(synthesis.Recommendations, "; "))

	return &playback.Step{
		Speaker: narration.RoleJudge,
		Text:    text,
		Type:    playback.StepVerdict,
	}
}
