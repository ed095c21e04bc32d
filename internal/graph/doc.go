// Package graph materializes the executable task graph for a selected set
// of goal tasks.
//
// Construction walks the transitive closure of the selection, keeps edges
// labeled strict or non-strict, promotes group dependencies onto the group's
// dependents (groups are structural and never executed), trims tasks that
// are not strictly required, and rejects cycles. The resulting graph owns
// the per-task status map that the executor drives through Ready and
// SetStatus.
package graph
