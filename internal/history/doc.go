// Package history persists command outcomes to SQLite.
//
// Every command dispatched through the engine is recorded with its
// final status (applied or rejected) so operators can audit what the
// bridge did and why. Entries live in the command_history table and
// are pruned on a retention window.
package history
