package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
	"github.com/effectlab/video-effect-detector/internal/core/ports"
)

var allowedExtensions = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
}

// Stager copies uploads into uniquely named temporary files for the
// duration of one request.
type Stager struct {
	dir      string
	maxBytes int64
}

func New(dir string, maxBytes int64) (*Stager, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stager{dir: dir, maxBytes: maxBytes}, nil
}

// Stage validates the declared filename's extension, writes the bytes to
// a fresh file and syncs it so downstream reads see the full content.
// The returned StagedVideo owns the file; Close removes it.
func (s *Stager) Stage(_ context.Context, filename string, data io.Reader) (ports.StagedVideo, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := allowedExtensions[ext]
	if !ok {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"stage video",
			fmt.Errorf("unsupported file type %q, allowed: .mp4, .mov, .avi", ext),
		)
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	if s.maxBytes > 0 {
		data = io.LimitReader(data, s.maxBytes+1)
	}
	written, err := io.Copy(f, data)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		f.Close()
		os.Remove(path)
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"stage video",
			fmt.Errorf("upload exceeds %d bytes", s.maxBytes),
		)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sync staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close staged file: %w", err)
	}

	return &stagedVideo{path: path, mimeType: mimeType}, nil
}

type stagedVideo struct {
	path     string
	mimeType string
}

func (v *stagedVideo) Path() string     { return v.path }
func (v *stagedVideo) MIMEType() string { return v.mimeType }

// Close removes the staged file. Safe to call once per staged video.
func (v *stagedVideo) Close() error {
	if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}
