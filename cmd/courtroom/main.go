// Command courtroom submits a document to a courtd server and plays the
// resulting deliberation back in the terminal, with narrated audio and
// word-synchronized text when a TTS endpoint and audio player are available.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/client"
	"github.com/pixelcourt/pixelcourt/internal/config"
	"github.com/pixelcourt/pixelcourt/internal/narration"
	"github.com/pixelcourt/pixelcourt/internal/playback"
)

func main() {
	var (
		serverURL  = flag.String("server", "http://localhost:3000", "courtd server base URL")
		file       = flag.String("file", "", "document to analyze (required)")
		rounds     = flag.Int("rounds", 2, "debate rounds per factor")
		transcript = flag.String("transcript", "", "write a Markdown transcript to this path when done")
		noAudio    = flag.Bool("no-audio", false, "disable narration, text only")
		playerBin  = flag.String("player", "ffplay", "audio player binary")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: courtroom -file <document> [-server URL] [-rounds N]")
		os.Exit(2)
	}

	document, err := os.ReadFile(*file)
	if err != nil {
		logger.WithError(err).Fatal("Reading document")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	jobID, err := client.SubmitDocument(ctx, *serverURL, filepath.Base(*file), document, *rounds)
	if err != nil {
		logger.WithError(err).Fatal("Submitting document")
	}
	fmt.Printf("Job %s submitted. Court is now in session.\n\n", jobID)

	cfg := config.Load()

	var player playback.Player
	if !*noAudio {
		if _, err := exec.LookPath(*playerBin); err != nil {
			fmt.Fprintf(os.Stderr, "%s not found, continuing without audio\n", *playerBin)
		} else {
			player = playback.NewExecPlayer(*playerBin)
		}
	}

	queue := playback.NewStepQueue()
	fetcher := playback.NewFetcher(narration.NewClient(cfg.Narration), logger)
	display := &termDisplay{out: os.Stdout}
	engine := playback.NewEngine(queue, fetcher, player, display, cfg.Playback, logger)

	session, err := client.NewSession(ctx, *serverURL, jobID, *rounds, queue, engine, logger)
	if err != nil {
		logger.WithError(err).Fatal("Connecting to event stream")
	}

	// Enter skips the current step.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			engine.Skip()
		}
	}()

	followErr := make(chan error, 1)
	go func() {
		followErr <- session.Follow(ctx)
	}()

	engine.Run(ctx)
	fetcher.Reset()

	if err := <-followErr; err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("Event stream ended abnormally")
	}

	if engine.State() == playback.StateFailed {
		os.Exit(1)
	}

	if *transcript != "" {
		err := client.SaveTranscript(*transcript, session.Factors(), session.CompletedFactors(), session.Transcript(), session.Synthesis())
		if err != nil {
			logger.WithError(err).Error("Saving transcript")
		} else {
			fmt.Printf("\nTranscript saved to %s\n", *transcript)
		}
	}
}

// termDisplay renders steps to the terminal, printing only the newly
// revealed suffix of the current step's text.
type termDisplay struct {
	out      *os.File
	revealed int
}

func speakerBanner(role narration.SpeakerRole) string {
	switch role {
	case narration.RoleJudge:
		return "JUDGE"
	case narration.RoleSupport:
		return "SUPPORT"
	case narration.RoleOppose:
		return "OPPOSE"
	default:
		return "SYSTEM"
	}
}

func (d *termDisplay) StepStarted(step *playback.Step) {
	d.revealed = 0
	banner := speakerBanner(step.Speaker)
	if info := step.FactorInfo; info != nil && info.RoundNumber > 0 {
		banner = fmt.Sprintf("%s (%s, round %d/%d)", banner, info.FactorName, info.RoundNumber, info.TotalRounds)
	}
	fmt.Fprintf(d.out, "[%s]\n", banner)
}

func (d *termDisplay) RevealText(text string) {
	if len(text) <= d.revealed {
		return
	}
	fmt.Fprint(d.out, text[d.revealed:])
	d.revealed = len(text)
}

func (d *termDisplay) StepFinished(*playback.Step) {
	d.revealed = 0
	fmt.Fprint(d.out, "\n\n")
}

func (d *termDisplay) SessionFinished() {
	fmt.Fprintln(d.out, strings.Repeat("=", 40))
	fmt.Fprintln(d.out, "Court is adjourned.")
}

func (d *termDisplay) SessionFailed(message string) {
	fmt.Fprintf(d.out, "\nThe session ended with an error: %s\n", message)
}
