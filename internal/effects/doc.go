// Package effects runs composite lighting effects on top of the engine's
// fade primitives.
//
// An effect is a tree of nodes: sequences run children one after another,
// parallels run children together, delays pause, and fades submit channel
// transitions to the engine. A runner ticks every active effect at the
// frame period and retires effects whose root node has finished.
//
// Effects never touch the universe store directly. Each fade node submits
// ordinary fade commands, so effect output obeys the same last-write-wins
// and validation rules as any other command source.
package effects
