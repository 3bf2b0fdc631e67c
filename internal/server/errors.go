// Package server provides the HTTP REST API for the platform decider.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/fetch"
	"github.com/jonathan/platform-decider/internal/ingestion"
	"github.com/jonathan/platform-decider/internal/parsing"
	"github.com/jonathan/platform-decider/internal/pipeline"
	"github.com/jonathan/platform-decider/internal/schemas"
)

// ErrStoreUnavailable is returned by run endpoints when no database is configured
var ErrStoreUnavailable = errors.New("run storage is not configured")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrNotFound
		factorErr     *parsing.ValidationError
		schemaErr     *schemas.ValidationError
		fetchErr      *fetch.Error
		apiErr        *parsing.APICallError
		parseErr      *parsing.ParseError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &factorErr), errors.As(err, &schemaErr),
		errors.Is(err, pipeline.ErrNoInput), errors.Is(err, ingestion.ErrInvalidURL),
		errors.Is(err, ingestion.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &fetchErr), errors.As(err, &apiErr), errors.As(err, &parseErr),
		errors.Is(err, ingestion.ErrHTTPRequestFailed), errors.Is(err, ingestion.ErrContentExtractionFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, pipeline.ErrNoExtractor):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
