// Package extraction exposes the HTTP trigger endpoint for on-demand
// extraction runs.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gitmeta/internal/domain/entity"
	"gitmeta/internal/handler/http/respond"
	"gitmeta/internal/usecase/orchestrate"
)

// Runner runs a full extraction for a validated request.
type Runner interface {
	Run(ctx context.Context, req entity.ExtractionRequest) (*orchestrate.RunResult, error)
}

// TriggerHandler handles POST /extract: it decodes an extraction request,
// runs it synchronously, and returns the summary plus document location.
type TriggerHandler struct{ Svc Runner }

type triggerRequest struct {
	Target     string          `json:"target"`
	Selections map[string]bool `json:"selections,omitempty"`
	Limits     entity.Limits   `json:"limits,omitempty"`
}

type triggerResponse struct {
	ExtractionID string         `json:"extraction_id"`
	Location     string         `json:"location,omitempty"`
	FailedOps    []string       `json:"failed_operations,omitempty"`
	Summary      map[string]any `json:"summary"`
}

func (h TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	selections := req.Selections
	if len(selections) == 0 {
		selections = entity.DefaultSelections()
	}

	result, err := h.Svc.Run(r.Context(), entity.ExtractionRequest{
		Target:     req.Target,
		Selections: selections,
		Limits:     req.Limits,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, entity.ErrEmptyTarget) ||
			errors.Is(err, entity.ErrEmptySelection) ||
			errors.Is(err, entity.ErrInvalidTarget) {
			status = http.StatusBadRequest
		}
		respond.SafeError(w, status, err)
		return
	}

	respond.JSON(w, http.StatusOK, triggerResponse{
		ExtractionID: result.ExtractionID,
		Location:     result.Location,
		FailedOps:    result.FailedOps,
		Summary:      result.Summary,
	})
}
