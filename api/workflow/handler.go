// Package workflow exposes the battery workflow over HTTP.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/batterycare/app"
	"github.com/kilianp07/batterycare/core/model"
	coreworkflow "github.com/kilianp07/batterycare/core/workflow"
	"github.com/kilianp07/batterycare/infra/telemetry"
)

// Path is the route served by NewRunHandler.
const Path = "/api/workflow/run"

// MaxBodyBytes bounds the uploaded telemetry file.
const MaxBodyBytes = 10 << 20

// Delivery outcomes reported in the X-Delivery header.
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliverySkipped   = "skipped"
)

// Runner executes one workflow run.
type Runner interface {
	Run(ctx context.Context, records []model.TelemetryRecord) (app.Result, error)
}

type failure struct {
	Stage string         `json:"stage,omitempty"`
	Error string         `json:"error"`
	State map[string]any `json:"state,omitempty"`
}

// NewRunHandler returns a handler accepting a telemetry CSV body via
// POST /api/workflow/run and answering with the state artifact.
func NewRunHandler(runner Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		records, err := telemetry.Load(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, failure{Error: err.Error()})
			return
		}
		res, err := runner.Run(r.Context(), records)
		if err != nil {
			writeFailure(w, err)
			return
		}
		switch {
		case res.DeliveryErr != nil:
			w.Header().Set("X-Delivery", DeliveryFailed)
		case res.Delivered:
			w.Header().Set("X-Delivery", DeliveryDelivered)
		default:
			w.Header().Set("X-Delivery", DeliverySkipped)
		}
		writeJSON(w, http.StatusOK, res.State.Artifact())
	})
}

func writeFailure(w http.ResponseWriter, err error) {
	body := failure{Error: err.Error()}
	var serr *coreworkflow.StageError
	if errors.As(err, &serr) {
		body.Stage = string(serr.Stage)
		body.State = serr.State.Artifact()
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrSchema):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrDataInsufficient):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
