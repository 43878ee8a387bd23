// Package repositories implements SQLite persistence for the stats history.
//
// [StatsRepository] handles CRUD operations on session stats samples with atomic
// sequence generation. Samples are soft-deleted via deleted_at timestamps and
// excluded from queries by default; [StatsRepository.Prune] removes old rows for good.
//
// [StatsRecorder] adapts the repository to the poller, storing one sample per
// polling round.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
