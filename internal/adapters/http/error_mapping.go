package httpadapter

import (
	"net/http"

	"github.com/effectlab/video-effect-detector/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrProcessingFailed):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrPollTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorDetail picks the user-facing message for each error kind. Validation
// and state-machine errors keep their own text; everything else collapses
// to a generic message so internals never leak.
func errorDetail(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return err.Error()
	case domain.IsKind(err, domain.ErrProcessingFailed):
		return "Video processing failed. Please try a different video format."
	case domain.IsKind(err, domain.ErrPollTimeout):
		return "Video processing timed out. Please try a shorter video."
	case domain.IsKind(err, domain.ErrParse):
		return "Failed to parse classification result from AI model"
	default:
		return "Video processing failed: " + err.Error()
	}
}
