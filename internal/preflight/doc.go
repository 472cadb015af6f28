// Package preflight provides readiness checks for the directories and
// binaries mediakiller depends on.
//
// "mediakiller check" prints every result. The run command calls
// CheckSystemDeps before building missions so a missing encoder fails
// before any work starts. Per-mission checks (output conflicts, existing
// targets) live with the scheduler.
package preflight
