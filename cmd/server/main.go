package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/agriml-api/internal/config"
	"github.com/Brownie44l1/agriml-api/internal/features"
	"github.com/Brownie44l1/agriml-api/internal/handlers"
	"github.com/Brownie44l1/agriml-api/internal/llm"
	"github.com/Brownie44l1/agriml-api/internal/model"
	"github.com/Brownie44l1/agriml-api/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	tables, err := loadTables(cfg, logger)
	if err != nil {
		return err
	}

	if err := model.InitRuntime(cfg.ONNXRuntimeLib); err != nil {
		return err
	}
	defer model.ShutdownRuntime()

	metrics := observability.NewMetrics()

	load := func(name string) *model.Handle {
		h := model.NewHandle(name)
		err := h.Load(model.LoadONNX(cfg.ModelPath(name+".onnx"), cfg.ModelPath(name+".json")))
		if err != nil {
			// The service keeps running; requests to this model get 503.
			logger.Error("model failed to load", slog.String("model", name), slog.String("error", err.Error()))
		} else {
			logger.Info("model loaded", slog.String("model", name))
		}
		metrics.SetModelReady(name, err == nil)
		return h
	}

	quality := load("quality")
	disease := load("disease")
	crop := load("crop")
	minPrice := load("min_price")
	maxPrice := load("max_price")
	modalPrice := load("modal_price")
	handles := []*model.Handle{quality, disease, crop, minPrice, maxPrice, modalPrice}
	defer func() {
		for _, h := range handles {
			if err := h.Close(); err != nil {
				logger.Warn("failed to close model", slog.String("model", h.Name()), slog.String("error", err.Error()))
			}
		}
	}()

	var cropLabels []string
	if v, err := tables.Vocabularies.Get(features.VocabCropType); err == nil {
		cropLabels = v.Categories()
	}

	deps := handlers.Deps{
		Tables:     tables,
		Quality:    model.NewClassifier(quality, handlers.QualityGrades, softmax(quality)),
		Disease:    model.NewClassifier(disease, handlers.DiseaseClasses, softmax(disease)),
		Crop:       model.NewClassifier(crop, cropLabels, false),
		MinPrice:   model.NewRegressor(minPrice),
		MaxPrice:   model.NewRegressor(maxPrice),
		ModalPrice: model.NewRegressor(modalPrice),
		Chat:       llm.New(llm.Config(cfg.Chat), logger),
		Metrics:    metrics,
		Logger:     logger,
	}
	if cfg.Remedy.APIKey != "" {
		deps.Remedy = llm.New(llm.Config(cfg.Remedy), logger)
	} else {
		logger.Warn("REMEDY_API_KEY not set, disease responses will carry no remedy")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.CORS(), metrics.Middleware())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	handlers.NewHandler(deps).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.Chat.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadTables prefers the prebuilt artifact and falls back to fitting the
// datasets at startup.
func loadTables(cfg *config.Config, logger *slog.Logger) (*features.Tables, error) {
	if cfg.FeatureArtifact != "" {
		a, err := features.LoadArtifactFile(cfg.FeatureArtifact)
		if err != nil {
			return nil, err
		}
		logger.Info("feature artifact loaded",
			slog.String("path", cfg.FeatureArtifact),
			slog.Time("built_at", a.BuiltAt),
		)
		return a.Tables()
	}

	logger.Warn("FEATURE_ARTIFACT not set, fitting feature tables from datasets")
	a, err := features.FitFiles(cfg.CropDataset, cfg.MandiDataset, time.Now())
	if err != nil {
		return nil, err
	}
	return a.Tables()
}

func softmax(h *model.Handle) bool {
	meta, err := h.Metadata()
	if err != nil {
		return true
	}
	return meta.ApplySoftmax
}
