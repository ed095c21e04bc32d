// Package executor drives a task graph to completion. It schedules ready
// tasks onto a bounded worker pool, captures per-task results, cascades
// skips over dependents of failed tasks, and enforces the halt-on-failure
// or keep-going policy.
package executor
