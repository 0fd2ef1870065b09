package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/agents"
	"github.com/pixelcourt/pixelcourt/internal/config"
	"github.com/pixelcourt/pixelcourt/internal/events"
	"github.com/pixelcourt/pixelcourt/internal/llm"
	"github.com/pixelcourt/pixelcourt/internal/metrics"
	"github.com/pixelcourt/pixelcourt/internal/orchestrator"
	"github.com/pixelcourt/pixelcourt/internal/registry"
	"github.com/pixelcourt/pixelcourt/internal/server"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector()
	collector.Register(promReg)

	reg := registry.New(cfg.Registry.TerminalTTL, logger)
	go reg.RunSweeper(ctx, cfg.Registry.SweepInterval)

	hub := events.NewHub(events.DefaultHubConfig(), logger)
	defer hub.Close()

	provider := llm.NewOpenAIProvider(cfg.LLM)
	orch := orchestrator.New(
		reg,
		hub,
		agents.NewExtractor(provider, logger),
		agents.NewSupportArguer(provider, logger),
		agents.NewOpposeArguer(provider, logger),
		agents.NewSynthesizer(provider, logger),
		collector,
		logger,
	)

	srv := server.New(cfg, reg, hub, orch, collector, promReg, logger)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.WithFields(logrus.Fields{
		"addr":    addr,
		"llm":     provider.Name(),
		"tts_url": cfg.Narration.BaseURL,
	}).Info("Starting courtd")

	if err := srv.Router().Run(addr); err != nil {
		logger.WithError(err).Fatal("Server exited")
	}
}
