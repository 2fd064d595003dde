package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig  Phase = "config"  // backend / option selection
	PhaseLayout  Phase = "layout"  // field offsets and padding
	PhaseInherit Phase = "inherit" // parent/child layout derivation
	PhaseVTable  Phase = "vtable"  // slot assignment
	PhaseRTTI    Phase = "rtti"    // type identity records
	PhaseSchema  Phase = "schema"  // declarative front end
	PhaseEmit    Phase = "emit"    // instruction sequence generation
	PhaseLoad    Phase = "load"    // module assembly and compilation
	PhaseRuntime Phase = "runtime" // executing emitted sequences
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindInvalidFieldSize Kind = "invalid_field_size"
	KindUnfinishedParent Kind = "unfinished_parent"
	KindSlotOutOfRange   Kind = "slot_out_of_range"
	KindConflictingRTTI  Kind = "conflicting_rtti"
	KindDuplicateMember  Kind = "duplicate_member"
	KindInvalidName      Kind = "invalid_name"
	KindNotFound         Kind = "not_found"
	KindUnsupported      Kind = "unsupported"
	KindInvalidInput     Kind = "invalid_input"
	KindSealed           Kind = "sealed"
	KindInstantiation    Kind = "instantiation"
	KindTrap             Kind = "trap"
)

// Templates for errors.Is. Only the Kind is compared when Phase is empty.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrInvalidFieldSize = &Error{Kind: KindInvalidFieldSize}
	ErrUnfinishedParent = &Error{Kind: KindUnfinishedParent}
	ErrSlotOutOfRange   = &Error{Kind: KindSlotOutOfRange}
	ErrConflictingRTTI  = &Error{Kind: KindConflictingRTTI}
	ErrDuplicateMember  = &Error{Kind: KindDuplicateMember}
	ErrInvalidName      = &Error{Kind: KindInvalidName}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
	ErrSealed           = &Error{Kind: KindSealed}
	ErrTrap             = &Error{Kind: KindTrap}
)

// Error is the structured error type used throughout the generator
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Arch   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Class != "" || e.Arch != "" {
		b.WriteString(": ")
		if e.Class != "" && e.Arch != "" {
			b.WriteString("class ")
			b.WriteString(e.Class)
			b.WriteString(", arch ")
			b.WriteString(e.Arch)
		} else if e.Class != "" {
			b.WriteString("class ")
			b.WriteString(e.Class)
		} else {
			b.WriteString("arch ")
			b.WriteString(e.Arch)
		}
	}

	if e.Detail != "" {
		if e.Class != "" || e.Arch != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// Arch sets the backend name
func (b *Builder) Arch(name string) *Builder {
	b.err.Arch = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the build-phase taxonomy

// Configuration creates a fatal configuration error (missing backend, bad width)
func Configuration(detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConfiguration,
		Detail: detail,
	}
}

// InvalidFieldSize creates an error for a non-positive field size
func InvalidFieldSize(class, field string, size int) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindInvalidFieldSize,
		Class:  class,
		Path:   []string{class, field},
		Detail: fmt.Sprintf("field size must be positive, got %d", size),
		Value:  size,
	}
}

// UnfinishedParent creates an error for extending a parent that was not finished
func UnfinishedParent(parent, child string) *Error {
	return &Error{
		Phase:  PhaseInherit,
		Kind:   KindUnfinishedParent,
		Class:  child,
		Detail: fmt.Sprintf("parent %q has not completed layout", parent),
		Value:  parent,
	}
}

// SlotOutOfRange creates an error for a slot reference beyond the vtable length
func SlotOutOfRange(phase Phase, class string, slot, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSlotOutOfRange,
		Class:  class,
		Detail: fmt.Sprintf("slot %d out of range (vtable length %d)", slot, length),
		Value:  slot,
	}
}

// ConflictingRTTI creates an error for a class that requests both offset-0 schemes
func ConflictingRTTI(phase Phase, class, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConflictingRTTI,
		Class:  class,
		Detail: detail,
	}
}

// DuplicateMember creates an error for a member declared twice on one class
func DuplicateMember(phase Phase, class, member string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateMember,
		Class:  class,
		Path:   []string{class, member},
		Detail: fmt.Sprintf("member %q already declared", member),
	}
}

// InvalidName creates an error for a name that cannot become an assembler symbol
func InvalidName(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidName,
		Detail: fmt.Sprintf("invalid %s name %q", what, name),
		Value:  name,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Sealed creates an error for mutating a descriptor after its build phase closed
func Sealed(phase Phase, class string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSealed,
		Class:  class,
		Detail: "descriptor is immutable once finished",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate object module",
		Cause:  cause,
	}
}

// Load creates a module assembly error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a schema parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseSchema,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Trap creates an error for emitted code that aborted during a call
func Trap(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Path:   []string{symbol},
		Detail: "call trapped",
		Cause:  cause,
	}
}
