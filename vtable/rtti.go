package vtable

import (
	"strings"

	"github.com/wippyai/objgen/errors"
)

// RTTIMode selects how a class exposes type identity.
type RTTIMode uint8

const (
	RTTINone     RTTIMode = iota // no type record
	RTTILeading                  // record pointer precedes the vtable
	RTTIIdentity                 // record pointer replaces the vtable pointer at offset 0
)

var rttiNames = [...]string{
	RTTINone:     "none",
	RTTILeading:  "leading-record",
	RTTIIdentity: "slot-0-identity",
}

func (m RTTIMode) String() string {
	if int(m) < len(rttiNames) {
		return rttiNames[m]
	}
	return "unknown"
}

// ParseRTTIMode accepts the schema spellings of a mode.
func ParseRTTIMode(s string) (RTTIMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RTTINone, nil
	case "leading-record", "leading", "typeinfo":
		return RTTILeading, nil
	case "slot-0-identity", "identity", "set-type":
		return RTTIIdentity, nil
	}
	return RTTINone, errors.New(errors.PhaseRTTI, errors.KindInvalidInput).
		Value(s).
		Detail("unknown rtti mode %q (want none, leading-record or slot-0-identity)", s).
		Build()
}

// ResolveRTTI folds the modes requested for class into one. RTTINone
// entries are ignored; requesting both offset-0 schemes is rejected.
func ResolveRTTI(class string, modes ...RTTIMode) (RTTIMode, error) {
	resolved := RTTINone
	for _, m := range modes {
		if m == RTTINone || m == resolved {
			continue
		}
		if resolved != RTTINone {
			return RTTINone, errors.ConflictingRTTI(errors.PhaseRTTI, class,
				"leading-record and slot-0-identity both use object offset 0")
		}
		resolved = m
	}
	return resolved, nil
}

// TypeInfo is an immutable type identity record.
type TypeInfo struct {
	Parent *TypeInfo
	Name   string
	Mode   RTTIMode
}

// Symbol returns the record's data symbol.
func (t *TypeInfo) Symbol() string { return TypeInfoSymbol(t.Name) }

// NameSymbol returns the symbol of the NUL-terminated name.
func (t *TypeInfo) NameSymbol() string { return TypeNameSymbol(t.Name) }

// IsA reports whether t is other or descends from it.
func (t *TypeInfo) IsA(other *TypeInfo) bool {
	for c := t; c != nil; c = c.Parent {
		if c == other {
			return true
		}
	}
	return false
}

// Record field offsets, in pointer widths.
const (
	RecordName   = 0
	RecordParent = 1
	RecordWords  = 2
)

// RecordSize returns the record size for a pointer width.
func RecordSize(width int) int {
	return RecordWords * width
}

// AttachTypeInfo builds the TypeInfo of v's class. In RTTILeading mode the
// record is linked to the table so it can be placed one pointer width
// before slot 0. In RTTIIdentity mode the record stands alone. parent is
// the parent class's record, if it has one.
func AttachTypeInfo(v *VTable, mode RTTIMode, parent *TypeInfo) (*TypeInfo, error) {
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseRTTI, "nil vtable")
	}
	switch mode {
	case RTTILeading, RTTIIdentity:
	default:
		return nil, errors.New(errors.PhaseRTTI, errors.KindInvalidInput).
			Class(v.class).
			Detail("cannot attach type info in mode %s", mode).
			Build()
	}
	if v.typeInfo != nil {
		return nil, errors.Sealed(errors.PhaseRTTI, v.class)
	}

	ti := &TypeInfo{Name: v.class, Parent: parent, Mode: mode}
	if mode == RTTILeading {
		v.typeInfo = ti
	}
	return ti, nil
}

// TypeInfoSymbol returns the record symbol for class.
func TypeInfoSymbol(class string) string {
	return class + "_typeinfo"
}

// TypeNameSymbol returns the name string symbol for class.
func TypeNameSymbol(class string) string {
	return class + "_typename"
}
