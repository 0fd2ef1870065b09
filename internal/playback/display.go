package playback

// Display is the presentation surface the engine drives. Implementations
// render however they like (terminal, GUI); the engine only guarantees call
// ordering: StepStarted, any number of RevealText, then StepFinished.
type Display interface {
	// StepStarted announces the active step before any text is revealed.
	StepStarted(step *Step)
	// RevealText replaces the currently shown text for the active step.
	RevealText(text string)
	// StepFinished marks the active step done; no more reveals follow.
	StepFinished(step *Step)
	// SessionFinished is called once, after the verdict step has played
	// and the queue is empty.
	SessionFinished()
	// SessionFailed is called on a terminal pipeline error.
	SessionFailed(message string)
}

// NopDisplay discards all output. Useful in tests and headless runs.
type NopDisplay struct{}

func (NopDisplay) StepStarted(*Step)    {}
func (NopDisplay) RevealText(string)    {}
func (NopDisplay) StepFinished(*Step)   {}
func (NopDisplay) SessionFinished()     {}
func (NopDisplay) SessionFailed(string) {}

var _ Display = NopDisplay{}
