package nyuzi

import (
	"errors"
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
	"github.com/tetratelabs/nyuzi/internal/asmparser"
	backend "github.com/tetratelabs/nyuzi/internal/backend/isa/nyuzi"
)

var (
	// ErrUnknownTarget is returned by Registry.Lookup for a name which was never registered.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrDuplicateTarget is returned by Registry.Register when the name is already taken.
	ErrDuplicateTarget = errors.New("duplicate target")
)

// AsmParser parses assembly source and emits each statement to the streamer it was created with.
type AsmParser interface {
	// Parse parses the whole source. Errors in one statement do not stop the following ones: the returned error is
	// an asmparser.DiagnosticList holding every diagnostic in source order.
	Parse(source []byte) error
}

// Lowering is the instruction lowering of a target. It names the lowering type outside this module, whose methods
// operate on the selection graphs of the code generators in this module.
type Lowering = *backend.TargetLowering

// Target creates the per-target components.
type Target interface {
	// Name is the key of the target in a Registry.
	Name() string

	// Description is a one line summary for listings.
	Description() string

	// NewAsmParser returns a parser for the subtarget of cfg which emits to out.
	NewAsmParser(cfg *TargetConfig, out asm.Streamer) (AsmParser, error)

	// NewLowering returns the instruction lowering of the subtarget of cfg.
	NewLowering(cfg *TargetConfig) (Lowering, error)
}

// Registry holds the targets known to a driver. The zero value is not usable: use NewRegistry.
type Registry struct {
	targets map[string]Target
	order   []string
}

// NewRegistry returns a registry holding the given targets.
//
// Note: This panics if two targets share a name.
func NewRegistry(targets ...Target) *Registry {
	r := &Registry{targets: map[string]Target{}}
	for _, t := range targets {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// NewDefaultRegistry returns a registry holding every target this module implements.
func NewDefaultRegistry() *Registry {
	return NewRegistry(NyuziTarget)
}

// Register adds t, or returns ErrDuplicateTarget.
func (r *Registry) Register(t Target) error {
	name := t.Name()
	if _, ok := r.targets[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTarget, name)
	}
	r.targets[name] = t
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the target registered under name, or ErrUnknownTarget.
func (r *Registry) Lookup(name string) (Target, error) {
	t, ok := r.targets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return t, nil
}

// Targets returns the registered targets in registration order.
func (r *Registry) Targets() []Target {
	ret := make([]Target, 0, len(r.order))
	for _, name := range r.order {
		ret = append(ret, r.targets[name])
	}
	return ret
}

// NyuziTarget is the Nyuzi vector processor.
var NyuziTarget Target = nyuziTarget{}

type nyuziTarget struct{}

// Name implements Target.Name
func (nyuziTarget) Name() string { return "nyuzi" }

// Description implements Target.Description
func (nyuziTarget) Description() string { return "Nyuzi GPGPU vector processor" }

// NewAsmParser implements Target.NewAsmParser
func (nyuziTarget) NewAsmParser(cfg *TargetConfig, out asm.Streamer) (AsmParser, error) {
	st, err := cfg.Subtarget()
	if err != nil {
		return nil, err
	}
	return asmparser.New(st, out, cfg.logger.WithField("component", "asmparser")), nil
}

// NewLowering implements Target.NewLowering
func (nyuziTarget) NewLowering(cfg *TargetConfig) (Lowering, error) {
	st, err := cfg.Subtarget()
	if err != nil {
		return nil, err
	}
	return backend.NewTargetLowering(st, cfg.logger.WithField("component", "lowering")), nil
}
