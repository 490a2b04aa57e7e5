package effects

import (
	"time"

	"github.com/openlux/dmxbridge/internal/universe"
)

// nodeRuntime is the ticked form of one definition node.
//
// tick advances the node by one frame period. done reports whether the
// node has finished; a done node's tick is never called again.
type nodeRuntime interface {
	tick(ex *execution)
	done() bool
}

// execution is one running effect. It carries the submit path for fade
// nodes and records the first submit failure, which aborts the effect.
type execution struct {
	id     string
	root   nodeRuntime
	submit func(id string, cmd universe.Command) error
	err    error
}

func (ex *execution) tick() {
	if ex.err != nil || ex.root.done() {
		return
	}
	ex.root.tick(ex)
}

func (ex *execution) finished() bool {
	return ex.err != nil || ex.root.done()
}

// sequenceNode runs its children one after another.
type sequenceNode struct {
	nodes   []nodeRuntime
	current int
}

func (s *sequenceNode) tick(ex *execution) {
	if s.current >= len(s.nodes) {
		return
	}
	s.nodes[s.current].tick(ex)
	if s.nodes[s.current].done() {
		s.current++
	}
}

func (s *sequenceNode) done() bool {
	return s.current >= len(s.nodes)
}

// parallelNode runs all of its children together.
type parallelNode struct {
	nodes []nodeRuntime
}

func (p *parallelNode) tick(ex *execution) {
	for _, n := range p.nodes {
		if !n.done() {
			n.tick(ex)
		}
	}
}

func (p *parallelNode) done() bool {
	for _, n := range p.nodes {
		if !n.done() {
			return false
		}
	}
	return true
}

// delayNode counts ticks without touching any channel.
type delayNode struct {
	ticks   int
	elapsed int
}

func (d *delayNode) tick(*execution) {
	if d.elapsed < d.ticks {
		d.elapsed++
	}
}

func (d *delayNode) done() bool {
	return d.elapsed >= d.ticks
}

// fadeNode submits one fade per channel on its first tick, then waits out
// the fade duration so a following sequence step starts after the fade
// lands.
type fadeNode struct {
	channels []int
	value    uint8
	duration time.Duration
	curve    universe.Curve
	ticks    int

	started bool
	elapsed int
}

func (f *fadeNode) tick(ex *execution) {
	if !f.started {
		f.started = true
		for _, ch := range f.channels {
			cmd := universe.FadeTo{
				Address:  ch,
				Value:    f.value,
				Duration: f.duration,
				Curve:    f.curve,
			}
			if err := ex.submit(ex.id, cmd); err != nil {
				ex.err = err
				return
			}
		}
		return
	}
	if f.elapsed < f.ticks {
		f.elapsed++
	}
}

func (f *fadeNode) done() bool {
	return f.started && f.elapsed >= f.ticks
}
