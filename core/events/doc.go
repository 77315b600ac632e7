// Package events defines the workflow events emitted on the event bus.
//
// Available event types:
//   - StageEvent: a stage finished, failed or was cancelled
//   - RunEvent: a run reached its terminal state
package events
