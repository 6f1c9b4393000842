// Package workflow defines the Temporal workflow driving documentation
// generation.
//
// The workflow owns deterministic control flow only: the significance
// gate, the draft -> diagrams -> final -> write ordering, and the
// diagram fan-out across activity futures. Everything touching a
// provider, a subprocess, or the filesystem lives in activities.
//
// Workflow code must stay deterministic: no system time, no random
// numbers, no I/O outside activity calls.
package workflow
