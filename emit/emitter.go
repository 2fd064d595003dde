// Package emit generates the object-model instruction sequences and data
// tables for one backend.
//
// Construct, Destruct and VirtualCall produce the lifecycle and dispatch
// sequences for a Class Descriptor. Every check happens here, at emit
// time: the sequences themselves contain no validation beyond the null
// checks the lifecycle contract requires.
//
// Caller obligations, not checked by the emitted code:
//   - the handle passed to VirtualCall or Destruct refers to a constructed,
//     not yet destroyed object of the descriptor's class or a subclass;
//   - calls against the same handle are serialized;
//   - a called slot holds a non-null entry.
//
// BuildUnit collects tables and per-class thunks for a whole registry;
// WriteAssembly renders a unit as GAS source for text backends.
package emit

import (
	"fmt"

	"github.com/wippyai/objgen/arch"
)

// Options configures an Emitter.
type Options struct {
	// LabelPrefix starts every generated local label. Default ".L".
	LabelPrefix string
	// Thunks controls whether BuildUnit emits callable per-class functions.
	Thunks bool
}

// DefaultOptions emits thunks with ".L" local labels.
func DefaultOptions() Options {
	return Options{LabelPrefix: ".L", Thunks: true}
}

// Emitter produces sequences for one backend. It is not safe for
// concurrent use: local label numbering is sequential.
type Emitter struct {
	backend arch.Backend
	opts    Options
	labels  int
}

// New creates an emitter. The backend is required.
func New(b arch.Backend, opts Options) (*Emitter, error) {
	if err := arch.Validate(b); err != nil {
		return nil, err
	}
	if opts.LabelPrefix == "" {
		opts.LabelPrefix = ".L"
	}
	return &Emitter{backend: b, opts: opts}, nil
}

// Backend returns the emitter's backend.
func (e *Emitter) Backend() arch.Backend {
	return e.backend
}

// Options returns the emitter's options.
func (e *Emitter) Options() Options {
	return e.opts
}

func (e *Emitter) label(class, what string) string {
	n := e.labels
	e.labels++
	return fmt.Sprintf("%s%s_%s%d", e.opts.LabelPrefix, class, what, n)
}

func (e *Emitter) scratch(i int) arch.Reg {
	return e.backend.Scratch(i)
}
