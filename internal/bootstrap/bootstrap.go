package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/effectlab/video-effect-detector/internal/config"
	"github.com/effectlab/video-effect-detector/internal/core/ports"
	"github.com/effectlab/video-effect-detector/internal/core/usecase"
	"github.com/effectlab/video-effect-detector/internal/infrastructure/provider/gemini"
	natsqueue "github.com/effectlab/video-effect-detector/internal/infrastructure/queue/nats"
	"github.com/effectlab/video-effect-detector/internal/infrastructure/resilience"
	"github.com/effectlab/video-effect-detector/internal/infrastructure/storage/staging"
	"github.com/effectlab/video-effect-detector/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Classifier ports.VideoClassifier
	Metrics    *metrics.ServerMetrics

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stager, err := staging.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init upload staging: %w", err)
	}

	// One provider attempt per request; the breaker still sheds load when
	// the provider is down across requests.
	providerExecutor := resilience.NewExecutor(resilience.SingleAttemptConfig())
	provider := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		FallbackModel:      cfg.GeminiFallbackModel,
		ResilienceExecutor: providerExecutor,
	})

	var publisher ports.ClassificationPublisher
	closeFn := func() {}
	if cfg.NATSURL != "" {
		queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = queue
		closeFn = queue.Close
	} else {
		slog.Info("classification event publishing disabled")
	}

	serverMetrics := metrics.NewServerMetrics("video-effect-detector")
	classifier := usecase.NewClassifyVideoUseCase(stager, provider, publisher, usecase.ClassifyOptions{
		PollInterval:    cfg.PollInterval,
		PollMaxWait:     cfg.PollMaxWait,
		CaptionAnalysis: cfg.CaptionAnalysis,
		ObserveWait: func(wait time.Duration) {
			serverMetrics.RecordProviderWait("video-effect-detector", wait)
		},
	})

	return &App{
		Config:     cfg,
		Classifier: classifier,
		Metrics:    serverMetrics,
		closeFn:    closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
