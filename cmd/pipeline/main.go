// Command pipeline computes a research dossier for one company-quarter
// from a raw period JSON file and prints it to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/pipeline"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/storage"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/triggers"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/valuation"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/verify"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

func main() {
	// Missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	var (
		periodPath  = flag.String("period", "", "path to the raw period JSON file (required)")
		historyPath = flag.String("history", "", "path to a JSON array of prior periods, most recent first")
		docsDir     = flag.String("docs", envOr("DOCS_DIR", "data/documents"), "document store directory")
		configDir   = flag.String("config", envOr("VALUATION_CONFIG_DIR", "data/valuation"), "valuation config directory")
		dataDir     = flag.String("data", envOr("DATA_DIR", "data/runtime"), "runtime artifact directory")
		backend     = flag.String("store", envOr("ARTIFACT_STORE", "json"), "artifact store backend: json or badger")
		runVerify   = flag.Bool("verify", false, "re-verify the computed dossier and print the verdict")
		logLevel    = flag.String("log-level", envOr("LOG_LEVEL", "info"), "zerolog level")
	)
	flag.Parse()

	logger := newLogger(*logLevel)

	if *periodPath == "" {
		logger.Fatal().Msg("-period is required")
	}

	raw, err := readPeriod(*periodPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load period")
	}
	history, err := readHistory(*historyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load history")
	}

	docs, err := docstore.NewFileStore(*docsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open document store")
	}
	artifacts, err := openArtifacts(*backend, *dataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open artifact store")
	}
	defer artifacts.Close()

	ctx := context.Background()

	loader := valuation.NewConfigLoader(*configDir)
	if cfg, err := loader.Load(raw.Ticker); err != nil {
		logger.Fatal().Err(err).Msg("load valuation config")
	} else if cfg != nil {
		raw, err = loader.Apply(ctx, raw, cfg, docs)
		if err != nil {
			logger.Fatal().Err(err).Msg("apply valuation config")
		}
		logger.Debug().Str("ticker", raw.Ticker).Msg("valuation config applied")
	}

	orchestrator := pipeline.New(pipeline.Config{
		DocumentStore: docs,
		Artifacts:     artifacts,
		Monitor:       triggers.NewMonitor(artifacts),
		Logger:        logger,
	})

	dossier, err := orchestrator.Run(ctx, raw, history)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline run failed")
	}

	payload, err := dossier.Encode()
	if err != nil {
		logger.Fatal().Err(err).Msg("encode dossier")
	}
	fmt.Println(string(payload))

	if *runVerify {
		verifier := verify.New(docs)
		verdict, err := verifier.Verify(ctx, raw, history, dossier)
		if err != nil {
			logger.Fatal().Err(err).Msg("verification failed")
		}
		logger.Info().Str("status", string(verdict.Status)).Strs("reasons", verdict.Reasons).Msg("verification verdict")
		if verdict.Status == models.QABlocker {
			os.Exit(1)
		}
	}
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func readPeriod(path string) (models.Period, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Period{}, err
	}
	var period models.Period
	if err := json.Unmarshal(raw, &period); err != nil {
		return models.Period{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return period, nil
}

func readHistory(path string) ([]models.Period, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var history []models.Period
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return history, nil
}

func openArtifacts(backend, dataDir string, logger zerolog.Logger) (storage.KV, error) {
	switch backend {
	case "badger":
		return storage.NewBadgerStore(filepath.Join(dataDir, "artifacts"), logger)
	case "json":
		return storage.NewJSONFileStore(filepath.Join(dataDir, "artifacts.json"))
	default:
		return nil, fmt.Errorf("unknown artifact store backend %q", backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
