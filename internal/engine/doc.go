// Package engine reconciles two independent timing domains: an irregular,
// bursty stream of operator commands and a rigid fixed-rate DMX output
// cadence.
//
// Two actors share the universe store:
//   - the Scheduler runs a fixed-period tick loop that advances fades,
//     snapshots the universe and hands the frame to the output sink with a
//     non-blocking send
//   - the Dispatcher consumes decoded commands from a buffered queue and
//     applies them to the store off the tick path
//
// Command volume never alters the tick cadence, and a command applied
// mid-tick is visible no later than the next tick. Per-command failures are
// reported as events and never stop either actor; a single cancellation
// signal shuts both down, with the scheduler finishing its in-flight tick
// first.
package engine
