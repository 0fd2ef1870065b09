// Package playback consumes the session's step queue one step at a time:
// it acquires narration (single-flight, with prefetch), drives the timed
// text reveal against audio playback, and advances on completion, skip, or
// failure. At most one step is ever active.
package playback

import (
	"regexp"
	"strings"

	"github.com/pixelcourt/pixelcourt/internal/narration"
)

// StepType classifies a presentation step.
type StepType string

const (
	StepAnnouncement StepType = "factor-announcement"
	StepDebateTurn   StepType = "debate-turn"
	StepVerdict      StepType = "verdict"
)

// FactorInfo ties a step to the factor (and round) it belongs to, for
// display purposes.
type FactorInfo struct {
	FactorID    string
	FactorName  string
	RoundNumber int
	TotalRounds int
}

// Step is one unit of presentation: a speaker, the text to narrate and
// reveal, and display metadata. Steps are consumed strictly in the order
// they were enqueued.
type Step struct {
	Speaker    narration.SpeakerRole
	Text       string
	Reasoning  string
	Type       StepType
	FactorInfo *FactorInfo
}

// bare punctuation tokens join to the preceding word without a space
var punctuationToken = regexp.MustCompile(`^[.,!?;:'")\]]$`)

// JoinWords reassembles timestamped words into display text.
func JoinWords(timestamps []narration.WordTimestamp) string {
	var sb strings.Builder
	for i, ts := range timestamps {
		if i > 0 && !punctuationToken.MatchString(ts.Word) {
			sb.WriteString(" ")
		}
		sb.WriteString(ts.Word)
	}
	return sb.String()
}

// RevealAt returns the prefix of the text whose word start times are at or
// before the given playback position in seconds.
func RevealAt(timestamps []narration.WordTimestamp, position float64) string {
	var sb strings.Builder
	for i, ts := range timestamps {
		if position < ts.Start {
			break
		}
		if i > 0 && !punctuationToken.MatchString(ts.Word) {
			sb.WriteString(" ")
		}
		sb.WriteString(ts.Word)
	}
	return sb.String()
}
