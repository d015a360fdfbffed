package ports

import (
	"context"
	"io"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
)

// VideoStager validates an upload and persists it to request-scoped
// local storage.
type VideoStager interface {
	Stage(ctx context.Context, filename string, data io.Reader) (StagedVideo, error)
}

// StagedVideo is a staged upload on local disk. Close removes the file
// and must be called on every exit path.
type StagedVideo interface {
	Path() string
	MIMEType() string
	Close() error
}

// AnalysisProvider is the remote multimodal model: file upload with an
// asynchronously polled state, plus prompt+file content generation.
type AnalysisProvider interface {
	UploadFile(ctx context.Context, path, mimeType string) (domain.RemoteFile, error)
	GetFile(ctx context.Context, name string) (domain.RemoteFile, error)
	GenerateContent(ctx context.Context, prompt string, file domain.RemoteFile) (text, modelUsed string, err error)
}

// ClassificationPublisher emits completed classifications for downstream
// consumers. Implementations must be safe for concurrent use.
type ClassificationPublisher interface {
	PublishClassification(ctx context.Context, event domain.ClassificationEvent) error
}

// VideoClassifier runs the full classification pipeline for one upload.
type VideoClassifier interface {
	Classify(ctx context.Context, filename string, data io.Reader) (domain.ClassificationResult, error)
}
