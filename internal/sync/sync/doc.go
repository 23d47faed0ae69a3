// Package sync provides the main sync orchestration logic.
// It runs the inventory, manifest, planning, transfer and state phases in
// order against one build stream and one repository location.
package sync
