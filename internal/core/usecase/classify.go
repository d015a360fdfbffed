package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
	"github.com/effectlab/video-effect-detector/internal/core/ports"
)

// SleepFunc suspends for d or returns early with the context error.
// Injectable so the readiness poll is testable without real timers.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type ClassifyVideoUseCase struct {
	stager    ports.VideoStager
	provider  ports.AnalysisProvider
	publisher ports.ClassificationPublisher

	pollInterval    time.Duration
	pollMaxWait     time.Duration
	captionAnalysis bool
	sleep           SleepFunc
	observeWait     func(time.Duration)
}

type ClassifyOptions struct {
	PollInterval    time.Duration
	PollMaxWait     time.Duration
	CaptionAnalysis bool
	Sleep           SleepFunc

	// ObserveWait, when set, receives the time spent waiting for the
	// provider to activate each upload.
	ObserveWait func(time.Duration)
}

func NewClassifyVideoUseCase(
	stager ports.VideoStager,
	provider ports.AnalysisProvider,
	publisher ports.ClassificationPublisher,
	options ClassifyOptions,
) *ClassifyVideoUseCase {
	interval := options.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxWait := options.PollMaxWait
	if maxWait <= 0 {
		maxWait = 120 * time.Second
	}
	sleep := options.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	return &ClassifyVideoUseCase{
		stager:          stager,
		provider:        provider,
		publisher:       publisher,
		pollInterval:    interval,
		pollMaxWait:     maxWait,
		captionAnalysis: options.CaptionAnalysis,
		sleep:           sleep,
		observeWait:     options.ObserveWait,
	}
}

// Classify runs the full pipeline for one upload: stage to local disk,
// submit to the provider, wait until the remote file becomes usable, ask
// the model, normalize its answer. The staged file is removed on every
// exit path.
func (uc *ClassifyVideoUseCase) Classify(ctx context.Context, filename string, data io.Reader) (domain.ClassificationResult, error) {
	staged, err := uc.stager.Stage(ctx, filename, data)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	defer func() {
		if closeErr := staged.Close(); closeErr != nil {
			slog.Warn("staged video cleanup failed", "filename", filename, "error", closeErr)
		}
	}()

	file, err := uc.provider.UploadFile(ctx, staged.Path(), staged.MIMEType())
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("upload to provider: %w", err)
	}

	file, err = uc.awaitActive(ctx, file)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	text, modelUsed, err := uc.provider.GenerateContent(ctx, buildClassificationPrompt(uc.captionAnalysis), file)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("generate content: %w", err)
	}

	result, err := NormalizeCompletion(text, modelUsed)
	if err != nil {
		slog.Error("unparseable model completion", "filename", filename, "raw_completion", text, "error", err)
		return domain.ClassificationResult{}, err
	}

	uc.publish(ctx, filename, result)
	return result, nil
}

// awaitActive observes the provider-side state machine until the file is
// usable. Bounded: FAILED and the wait budget are both terminal.
func (uc *ClassifyVideoUseCase) awaitActive(ctx context.Context, file domain.RemoteFile) (domain.RemoteFile, error) {
	elapsed := time.Duration(0)
	defer func() {
		if uc.observeWait != nil {
			uc.observeWait(elapsed)
		}
	}()
	for file.State == domain.FileStateProcessing {
		if elapsed >= uc.pollMaxWait {
			return domain.RemoteFile{}, domain.WrapError(
				domain.ErrPollTimeout,
				"await active",
				fmt.Errorf("still processing after %s", elapsed),
			)
		}
		if err := uc.sleep(ctx, uc.pollInterval); err != nil {
			return domain.RemoteFile{}, fmt.Errorf("await active: %w", err)
		}
		elapsed += uc.pollInterval

		refreshed, err := uc.provider.GetFile(ctx, file.Name)
		if err != nil {
			return domain.RemoteFile{}, fmt.Errorf("refresh file state: %w", err)
		}
		file = refreshed
		slog.Info("provider file state", "file", file.Name, "state", file.State, "waited", elapsed.String())
	}

	if file.State == domain.FileStateFailed {
		return domain.RemoteFile{}, domain.WrapError(
			domain.ErrProcessingFailed,
			"await active",
			errors.New("provider reported FAILED"),
		)
	}
	return file, nil
}

// publish is best-effort: downstream eventing never fails a request.
func (uc *ClassifyVideoUseCase) publish(ctx context.Context, filename string, result domain.ClassificationResult) {
	if uc.publisher == nil {
		return
	}
	event := domain.ClassificationEvent{
		RequestID:  domain.RequestIDFromContext(ctx),
		Filename:   filename,
		Effect:     result.Effect,
		Confidence: result.Confidence,
		ModelUsed:  result.ModelUsed,
	}
	if err := uc.publisher.PublishClassification(ctx, event); err != nil {
		slog.Warn("publish classification event failed", "filename", filename, "error", err)
	}
}
