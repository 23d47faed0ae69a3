// Package sync groups the phases of a repository sync run.
//
// A run lists what the repository already holds (inventory), walks the
// build stream for rojig artifacts (manifest), diffs the two (planner),
// streams the missing artifacts into storage (executor) and finally
// records the synchronized build (state). Package sync/sync wires the
// phases together.
package sync
