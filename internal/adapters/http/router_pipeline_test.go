package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
	"github.com/effectlab/video-effect-detector/internal/core/usecase"
	"github.com/effectlab/video-effect-detector/internal/infrastructure/storage/staging"
	"github.com/effectlab/video-effect-detector/internal/observability/metrics"
)

// pipelineProviderFake is an immediately-active provider for end-to-end
// handler tests over the real use case and real staging.
type pipelineProviderFake struct {
	completion string
	uploaded   string
}

func (f *pipelineProviderFake) UploadFile(_ context.Context, path, mimeType string) (domain.RemoteFile, error) {
	f.uploaded = path
	return domain.RemoteFile{Name: "files/e2e", URI: "uri://e2e", MIMEType: mimeType, State: domain.FileStateActive}, nil
}

func (f *pipelineProviderFake) GetFile(_ context.Context, name string) (domain.RemoteFile, error) {
	return domain.RemoteFile{Name: name, State: domain.FileStateActive}, nil
}

func (f *pipelineProviderFake) GenerateContent(context.Context, string, domain.RemoteFile) (string, string, error) {
	return f.completion, "gemini-2.0-flash-exp", nil
}

func newPipelineHandler(t *testing.T, provider *pipelineProviderFake) http.Handler {
	t.Helper()
	stager, err := staging.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("staging.New() error = %v", err)
	}
	classifier := usecase.NewClassifyVideoUseCase(stager, provider, nil, usecase.ClassifyOptions{})
	return NewRouter(classifier, metrics.NewServerMetrics("test"), "./testdata", true).Handler()
}

func TestPipelineClassifySuccess(t *testing.T) {
	provider := &pipelineProviderFake{
		completion: `{"effect":"crossfade","confidence":0.92,"description":"dissolve"}`,
	}
	handler := newPipelineHandler(t, provider)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartVideoRequest(t, "clip.mp4"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload domain.ClassificationResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Effect != domain.EffectCrossfade || payload.Confidence != 0.92 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if len(payload.CaptionEffects.Effects) != 1 || payload.CaptionEffects.Effects[0] != domain.CaptionEffectNone {
		t.Fatalf("expected caption_effects.effects=[none], got %v", payload.CaptionEffects.Effects)
	}
	if _, err := os.Stat(provider.uploaded); !os.IsNotExist(err) {
		t.Fatalf("staged file must be removed after the request, stat err = %v", err)
	}
}

func TestPipelineUnsupportedExtensionRejectedBeforeProvider(t *testing.T) {
	provider := &pipelineProviderFake{}
	handler := newPipelineHandler(t, provider)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartVideoRequest(t, "clip.gif"))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if provider.uploaded != "" {
		t.Fatalf("provider must not be called for rejected uploads")
	}
}

func TestPipelineMalformedCompletionCleansUp(t *testing.T) {
	provider := &pipelineProviderFake{completion: "definitely not json"}
	handler := newPipelineHandler(t, provider)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartVideoRequest(t, "clip.mp4"))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if _, err := os.Stat(provider.uploaded); !os.IsNotExist(err) {
		t.Fatalf("staged file must be removed after a parse failure, stat err = %v", err)
	}
}
