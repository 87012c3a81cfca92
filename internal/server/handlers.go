package server

import (
	"errors"
	"io"
	"net/http"

	"moddeploy/internal/deploy"
	"moddeploy/internal/notify"

	"github.com/go-chi/chi/v5"
)

const (
	MaxPayloadBytes     = 1_000_000 // 1 MB
	RecentVersionsLimit = 20
)

// HandleWebhook receives GitHub webhook events and drives the
// deployment manager.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxPayloadBytes {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large", APIError{
			Code:  CodeBadRequest,
			Title: "Payload too large",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes))
	if err != nil {
		s.Logger.Error("failed to read request body", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to read payload", APIError{
			Code:  CodeBadRequest,
			Title: "Failed to read payload",
		})
		return
	}

	// Signature verification is skipped only when no secret is configured.
	if s.Secret != "" {
		signature := r.Header.Get(SignatureHeader)
		if !VerifySignature(body, signature, s.Secret) {
			s.respondError(w, http.StatusBadRequest, "Github verification failed", APIError{
				Code:   CodeSignatureInvalid,
				Title:  "Signature verification failed",
				Detail: "the request signature does not match the shared secret",
			})
			return
		}
	}

	eventType := r.Header.Get(EventHeader)
	outcome, err := s.Manager.HandleEvent(r.Context(), eventType, body)
	if err != nil {
		s.respondHandleError(w, err)
		return
	}

	code := http.StatusOK
	if outcome.Invoked {
		code = http.StatusCreated
	}
	s.respondStatus(w, code, outcome.Status)
}

// respondHandleError maps manager errors onto the structured error taxonomy.
func (s *Server) respondHandleError(w http.ResponseWriter, err error) {
	var ambiguous *deploy.AmbiguousConfigurationError
	if errors.As(err, &ambiguous) {
		s.Logger.Error("ambiguous deployment configuration",
			"repo", ambiguous.RepoName, "branch", ambiguous.Branch, "count", ambiguous.Count)
		s.respondError(w, http.StatusBadRequest, "ambiguous deployment configuration", APIError{
			Code:   CodeAmbiguousConfiguration,
			Title:  "Ambiguous deployment configuration",
			Detail: ambiguous.Error(),
			Meta: map[string]any{
				"repo":   ambiguous.RepoName,
				"branch": ambiguous.Branch,
			},
		})
		return
	}

	if errors.Is(err, deploy.ErrBadPayload) {
		s.respondError(w, http.StatusBadRequest, "invalid payload", APIError{
			Code:   CodeBadRequest,
			Title:  "Invalid payload",
			Detail: err.Error(),
		})
		return
	}

	var createErr *notify.DeploymentCreateError
	if errors.As(err, &createErr) {
		s.Logger.Error("deployment record creation rejected",
			"repo", createErr.Repo, "status", createErr.StatusCode, "body", createErr.Body)
		s.respondError(w, http.StatusInternalServerError, "deployment record creation failed", APIError{
			Code:   CodeDeploymentCreateFailed,
			Title:  "Deployment record creation failed",
			Detail: createErr.Body,
			Meta:   map[string]any{"repo": createErr.Repo},
		})
		return
	}

	s.Logger.Error("webhook handling failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, "deployment failed", APIError{
		Code:   CodeDeploymentFailed,
		Title:  "Deployment failed",
		Detail: err.Error(),
	})
}

// HandleHealth reports liveness and configuration shape.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"environment":    s.Manager.Environment(),
		"configurations": s.Manager.ConfigurationCount(),
	})
}

// HandleVersions lists recently published files for a featured mod.
func (s *Server) HandleVersions(w http.ResponseWriter, r *http.Request) {
	mod := chi.URLParam(r, "mod")

	if s.Versions == nil {
		s.respondError(w, http.StatusServiceUnavailable, "version store not available", APIError{
			Code:  CodeBadRequest,
			Title: "Version store not available",
		})
		return
	}

	records, err := s.Versions.RecentFiles(r.Context(), mod, RecentVersionsLimit)
	if err != nil {
		s.Logger.Error("failed to list versions", "mod", mod, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list versions", APIError{
			Code:  CodeDeploymentFailed,
			Title: "Failed to list versions",
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"mod":   mod,
		"files": records,
	})
}
