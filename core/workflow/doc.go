// Package workflow runs the battery maintenance pipeline. An Orchestrator
// executes the analyze, plan, schedule and notify stages in order. Each stage
// reads the previous State and returns a Delta that only fills the field it
// owns; the orchestrator merges it into a new versioned State.
package workflow
