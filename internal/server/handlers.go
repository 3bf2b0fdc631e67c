package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/platform-decider/internal/rendering"
	"github.com/jonathan/platform-decider/internal/schemas"
	"github.com/jonathan/platform-decider/internal/types"
)

// fieldError is the JSON form of a schema violation
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// readBody reads a request body up to maxBodyBytes
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: "failed to read request body: " + err.Error()}
	}
	return data, nil
}

// decodeFactorRecord checks raw JSON against the factor record schema and
// the struct validation tags, then decodes it.
func decodeFactorRecord(data []byte) (*types.FactorRecord, error) {
	if !json.Valid(data) {
		return nil, &ErrValidation{Field: "body", Message: "request body is not valid JSON"}
	}
	if err := schemas.ValidateFactorRecord(data); err != nil {
		return nil, err
	}

	var record types.FactorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := record.Validate(); err != nil {
		return nil, &ErrValidation{Field: "factors", Message: err.Error()}
	}
	return &record, nil
}

// validationResponse writes a 400 listing every schema violation
func (s *Server) validationResponse(w http.ResponseWriter, message string, err *schemas.ValidationError) {
	details := make([]fieldError, 0, len(err.Errors))
	for _, fe := range err.Errors {
		details = append(details, fieldError{Field: fe.Field, Message: fe.Message})
	}
	s.jsonResponse(w, http.StatusBadRequest, map[string]any{
		"error":   message,
		"details": details,
	})
}

// handleDecide runs the decision engine on a posted factor record.
// With ?format=markdown the rendered document is returned instead of JSON.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	record, err := decodeFactorRecord(data)
	if err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			s.validationResponse(w, "invalid factor record", schemaErr)
			return
		}
		s.errorFromErr(w, err)
		return
	}

	decision := s.engine.Decide(*record)

	if r.URL.Query().Get("format") == "markdown" {
		markdown, err := rendering.RenderMarkdown(&decision)
		if err != nil {
			s.errorFromErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, markdown)
		return
	}

	s.jsonResponse(w, http.StatusOK, decision)
}
