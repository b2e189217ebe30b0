package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// StatusMapping selects how service errors become HTTP status codes.
type StatusMapping string

const (
	// StatusMappingLegacy answers every ingest failure with 404 and every
	// search failure with 504.
	StatusMappingLegacy StatusMapping = "legacy"

	// StatusMappingPrecise derives the status from the error kind.
	StatusMappingPrecise StatusMapping = "precise"
)

// ParseStatusMapping validates a mapping name. Empty selects legacy.
func ParseStatusMapping(s string) (StatusMapping, error) {
	switch StatusMapping(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusMappingLegacy:
		return StatusMappingLegacy, nil
	case StatusMappingPrecise:
		return StatusMappingPrecise, nil
	default:
		return "", fmt.Errorf("unknown status mapping %q", s)
	}
}

// ingestStatus maps a save failure
func (m StatusMapping) ingestStatus(err error) int {
	if m == StatusMappingPrecise {
		return preciseStatus(err)
	}
	return http.StatusNotFound
}

// searchStatus maps a search or retrieve failure
func (m StatusMapping) searchStatus(err error) int {
	if m == StatusMappingPrecise {
		return preciseStatus(err)
	}
	return http.StatusGatewayTimeout
}

func preciseStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindFetch:
		return http.StatusBadGateway
	case domain.KindParse:
		return http.StatusUnprocessableEntity
	case domain.KindStore:
		return http.StatusServiceUnavailable
	case domain.KindLLM:
		if domain.IsTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, domain.ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// headerSafe flattens a message so it fits in a single header value
func headerSafe(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
