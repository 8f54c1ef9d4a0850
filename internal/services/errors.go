package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMetadata          = errors.New("metadata error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrBudgetInfeasible  = errors.New("budget infeasible")
	ErrEngineInit        = errors.New("engine init error")
	ErrEngineExecution   = errors.New("engine execution error")
	ErrCancellation      = errors.New("cancellation error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
)

// Failure kinds reported alongside failed jobs.
const (
	KindMetadata          = "metadata"
	KindUnsupportedFormat = "unsupported_format"
	KindBudgetInfeasible  = "budget_infeasible"
	KindEngineInit        = "engine_init"
	KindEngineExecution   = "engine_execution"
	KindCancellation      = "cancellation"
	KindCancelled         = "cancelled"
	KindValidation        = "validation"
	KindConfiguration     = "configuration"
	KindUnknown           = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEngineExecution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its failure kind. Context cancellation is reported as
// KindCancelled so callers can tell user intent apart from engine trouble.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMetadata):
		return KindMetadata
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrBudgetInfeasible):
		return KindBudgetInfeasible
	case errors.Is(err, ErrEngineInit):
		return KindEngineInit
	case errors.Is(err, ErrCancellation):
		return KindCancellation
	case errors.Is(err, ErrEngineExecution):
		return KindEngineExecution
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindUnknown
	}
}

// HTTPStatus maps a failure kind to the status code the API reports for it.
func HTTPStatus(kind string) int {
	switch kind {
	case KindUnsupportedFormat, KindValidation, KindBudgetInfeasible:
		return http.StatusUnprocessableEntity
	case KindMetadata:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindEngineInit, KindEngineExecution, KindCancellation:
		return http.StatusBadGateway
	case KindCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
