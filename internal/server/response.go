package server

import (
	"encoding/json"
	"net/http"
)

// Stable error codes API clients can branch on instead of parsing prose.
const (
	CodeSignatureInvalid       = "signature-invalid"
	CodeBadRequest             = "bad-request"
	CodeAmbiguousConfiguration = "ambiguous-configuration"
	CodeDeploymentCreateFailed = "deployment-create-failed"
	CodeDeploymentFailed       = "deployment-failed"
)

// APIError is one structured error object in an error response.
type APIError struct {
	Code   string         `json:"code"`
	Title  string         `json:"title"`
	Detail string         `json:"detail"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// statusResponse is the envelope of every webhook response. Error
// responses additionally carry the structured error list.
type statusResponse struct {
	Status string     `json:"status"`
	Errors []APIError `json:"errors,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	s.respondJSON(w, statusCode, statusResponse{Status: status})
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, status string, errs ...APIError) {
	s.respondJSON(w, statusCode, statusResponse{Status: status, Errors: errs})
}
