package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
	"github.com/effectlab/video-effect-detector/internal/core/ports"
	"github.com/effectlab/video-effect-detector/internal/observability/metrics"
)

const serviceName = "video-effect-detector"

type Router struct {
	classifier    ports.VideoClassifier
	metrics       *metrics.ServerMetrics
	frontendDir   string
	providerReady bool
}

func NewRouter(
	classifier ports.VideoClassifier,
	serverMetrics *metrics.ServerMetrics,
	frontendDir string,
	providerReady bool,
) *Router {
	return &Router{
		classifier:    classifier,
		metrics:       serverMetrics,
		frontendDir:   frontendDir,
		providerReady: providerReady,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(corsMiddleware)
	r.Use(accessLogMiddleware)

	r.Post("/classify", rt.classify)
	r.Get("/health", rt.health)
	r.Get("/", rt.index)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(rt.frontendDir))))
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = r
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return handler
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	start := time.Now()
	result, err := rt.classifier.Classify(r.Context(), fileHeader.Filename, file)
	if err != nil {
		if rt.metrics != nil && domain.IsKind(err, domain.ErrParse) {
			rt.metrics.RecordParseFailure(serviceName)
		}
		writeDetail(w, mapErrorToHTTPStatus(err), errorDetail(err))
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordClassification(serviceName, string(result.Effect), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"gemini_initialized": rt.providerReady,
	})
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(rt.frontendDir, "index.html"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
