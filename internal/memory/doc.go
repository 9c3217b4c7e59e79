// Package memory keeps metadata extraction inside the process memory
// budget.
//
// ConfigureFromEnv derives GOMEMLIMIT from a container limit passed as
// MEMORY_LIMIT (scaled by MEMORY_RATIO, default 0.85) unless GOMEMLIMIT is
// already set. A Monitor samples heap usage against that limit and pauses
// extraction workers when usage crosses the critical mark, resuming once
// it falls below the high-water mark.
package memory
