package client

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/narration"
	"github.com/pixelcourt/pixelcourt/internal/playback"
)

func speakerLabel(role narration.SpeakerRole) string {
	switch role {
	case narration.RoleJudge:
		return "**JUDGE**"
	case narration.RoleSupport:
		return "**SUPPORT**"
	case narration.RoleOppose:
		return "**OPPOSE**"
	default:
		return "**SYSTEM**"
	}
}

// FormatTranscript renders the full deliberation as a Markdown report:
// factor overview with completion marks, the spoken transcript grouped by
// factor and round, and the final ruling if the job reached one.
func FormatTranscript(factors []models.Factor, completed map[string]bool, transcript []*playback.Step, synthesis *models.Synthesis) string {
	var md strings.Builder

	md.WriteString("# Pixel Court Deliberation Report\n\n")
	fmt.Fprintf(&md, "**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	md.WriteString("---\n\n")

	md.WriteString("## Factors Examined\n\n")
	for i, f := range factors {
		fmt.Fprintf(&md, "%d. **%s**: %s", i+1, f.Name, f.Description)
		if completed[f.ID] {
			md.WriteString(" *(deliberation complete)*")
		}
		md.WriteString("\n")
	}
	md.WriteString("\n---\n\n")

	md.WriteString("## Deliberation Transcript\n\n")

	currentFactor := ""
	currentRound := 0
	for _, step := range transcript {
		if info := step.FactorInfo; info != nil {
			if info.FactorName != "" && info.FactorName != currentFactor {
				currentFactor = info.FactorName
				currentRound = 0
				fmt.Fprintf(&md, "\n### Factor: %s\n\n", currentFactor)
			}
			if info.RoundNumber != 0 && info.RoundNumber != currentRound {
				currentRound = info.RoundNumber
				fmt.Fprintf(&md, "#### Round %d\n\n", currentRound)
			}
		}
		fmt.Fprintf(&md, "%s:\n\n> %s\n\n", speakerLabel(step.Speaker), step.Text)
	}

	if synthesis != nil {
		md.WriteString("---\n\n")
		md.WriteString("## Final Verdict\n\n")
		fmt.Fprintf(&md, "### Overall Summary\n\n%s\n\n", synthesis.OverallSummary)

		writeList := func(heading string, items []string) {
			fmt.Fprintf(&md, "### %s\n\n", heading)
			for _, item := range items {
				fmt.Fprintf(&md, "- %s\n", item)
			}
			md.WriteString("\n")
		}
		writeList("What Worked", synthesis.WhatWorked)
		writeList("What Failed", synthesis.WhatFailed)
		writeList("Root Causes", synthesis.RootCauses)
		writeList("Recommendations", synthesis.Recommendations)

		md.WriteString("### Per-Factor Analysis\n\n")
		for _, pf := range synthesis.PerFactor {
			fmt.Fprintf(&md, "#### %s\n\n", pf.FactorName)
			fmt.Fprintf(&md, "**Support Summary:** %s\n\n", pf.SummarySupport)
			fmt.Fprintf(&md, "**Opposition Summary:** %s\n\n", pf.SummaryOppose)
			fmt.Fprintf(&md, "**Verdict:** %s\n\n", pf.Verdict)
		}
	}

	md.WriteString("---\n\n*Generated by Pixel Court AI Deliberation System*\n")
	return md.String()
}

// SaveTranscript writes the Markdown report to the given path.
func SaveTranscript(path string, factors []models.Factor, completed map[string]bool, transcript []*playback.Step, synthesis *models.Synthesis) error {
	md := FormatTranscript(factors, completed, transcript, synthesis)
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
