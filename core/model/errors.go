package model

import "errors"

var (
	// ErrDataInsufficient is returned when the telemetry series cannot support an analysis.
	ErrDataInsufficient = errors.New("insufficient telemetry data")
	// ErrSchema is returned when telemetry input is missing fields or has the wrong shape.
	ErrSchema = errors.New("telemetry schema error")
	// ErrCollaboratorUnavailable marks a failed optional knowledge lookup. It is never fatal.
	ErrCollaboratorUnavailable = errors.New("knowledge collaborator unavailable")
)
