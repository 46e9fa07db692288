package checker

import (
	"errors"
	"net/http"

	"github.com/sleighlabs/nicelist/internal/ai"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/internal/store"
)

var (
	// ErrInvalidHandle indicates an empty handle after normalization.
	ErrInvalidHandle = errors.New("handle must not be empty")
	// ErrClassificationMismatch indicates the classifier referenced a post id
	// that is not in the fetched post set.
	ErrClassificationMismatch = errors.New("classifier referenced unknown post id")
)

// HTTPStatusCode maps a pipeline failure to the status code the REST surface
// reports. Unknown errors are internal server errors.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, social.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, social.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrInvalidHandle),
		errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, store.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, social.ErrMalformedResponse),
		errors.Is(err, ai.ErrInvalidClassification),
		errors.Is(err, ai.ErrModelResponse),
		errors.Is(err, ErrClassificationMismatch),
		errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
