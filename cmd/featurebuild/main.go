// Command featurebuild fits the category vocabularies, soil averages and
// price history from the historical datasets and writes the feature
// artifact the server loads at startup.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Brownie44l1/agriml-api/internal/features"
	"github.com/Brownie44l1/agriml-api/internal/observability"
)

func main() {
	crop := flag.String("crop", "", "crop recommendation CSV")
	mandi := flag.String("mandi", "", "mandi price CSV")
	out := flag.String("out", "models/features.json", "artifact output path")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.InitLogger(observability.LogConfig{Level: *logLevel, Format: "text"})

	if *crop == "" && *mandi == "" {
		logger.Error("at least one of -crop or -mandi is required")
		os.Exit(2)
	}

	a, err := features.FitFiles(*crop, *mandi, time.Now())
	if err != nil {
		logger.Error("failed to fit datasets", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := a.WriteFile(*out); err != nil {
		logger.Error("failed to write artifact", slog.String("error", err.Error()))
		os.Exit(1)
	}

	attrs := []any{
		slog.String("path", *out),
		slog.Int("soil_types", len(a.SoilAverages)),
		slog.Int("price_observations", len(a.PriceHistory)),
	}
	for name, cats := range a.Vocabularies {
		attrs = append(attrs, slog.Int("vocab_"+name, len(cats)))
	}
	logger.Info("feature artifact written", attrs...)
}
