package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/wippyai/objgen/arch"
	objerr "github.com/wippyai/objgen/errors"
)

func planner(t *testing.T, name string) *Planner {
	t.Helper()
	b, err := arch.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	p, err := NewPlanner(b)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	return p
}

func TestNewPlannerRequiresBackend(t *testing.T) {
	_, err := NewPlanner(nil)
	if !errors.Is(err, objerr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBeginReservesDispatchSlot(t *testing.T) {
	for _, name := range arch.Names() {
		p := planner(t, name)
		l, err := p.Begin("Empty")
		if err != nil {
			t.Fatalf("%s: Begin: %v", name, err)
		}
		if l.Size() != p.Width() {
			t.Errorf("%s: initial size %d, want %d", name, l.Size(), p.Width())
		}
		if pad := l.Finish(); pad != 0 {
			t.Errorf("%s: empty class padding %d", name, pad)
		}
	}
}

func TestAddFieldOffsets(t *testing.T) {
	tests := []struct {
		arch    string
		sizes   []int
		offsets []int
		size    int
		padding int
	}{
		{"x86_64", []int{4}, []int{8}, 16, 4},
		{"x86_64", []int{4, 4}, []int{8, 12}, 16, 0},
		{"x86_64", []int{1, 2, 8}, []int{8, 9, 11}, 24, 5},
		{"mips32", []int{4, 4}, []int{4, 8}, 12, 0},
		{"mips32", []int{1}, []int{4}, 8, 3},
		{"wasm32", []int{3, 3}, []int{4, 7}, 12, 2},
	}
	for _, tt := range tests {
		p := planner(t, tt.arch)
		l, _ := p.Begin("C")
		for i, sz := range tt.sizes {
			off, err := l.AddField(fieldName(i), sz)
			if err != nil {
				t.Fatalf("%s: AddField: %v", tt.arch, err)
			}
			if off != tt.offsets[i] {
				t.Errorf("%s: field %d offset %d, want %d", tt.arch, i, off, tt.offsets[i])
			}
		}
		if pad := l.Finish(); pad != tt.padding {
			t.Errorf("%s %v: padding %d, want %d", tt.arch, tt.sizes, pad, tt.padding)
		}
		if l.Size() != tt.size {
			t.Errorf("%s %v: size %d, want %d", tt.arch, tt.sizes, l.Size(), tt.size)
		}
	}
}

func fieldName(i int) string {
	return string(rune('a' + i))
}

func TestFieldsNeverOverlap(t *testing.T) {
	sizes := []int{1, 7, 3, 16, 2, 5, 8, 1}
	for _, name := range arch.Names() {
		p := planner(t, name)
		l, _ := p.Begin("Mixed")
		for i, sz := range sizes {
			if _, err := l.AddField(fieldName(i), sz); err != nil {
				t.Fatal(err)
			}
		}
		l.Finish()

		prevEnd := p.Width()
		for _, f := range l.Fields() {
			if f.Offset < prevEnd {
				t.Errorf("%s: field %s at %d overlaps previous end %d", name, f.Name, f.Offset, prevEnd)
			}
			prevEnd = f.End()
		}
		if l.Size()%p.Width() != 0 {
			t.Errorf("%s: size %d not a multiple of %d", name, l.Size(), p.Width())
		}
		if l.Size() < prevEnd {
			t.Errorf("%s: size %d smaller than last field end %d", name, l.Size(), prevEnd)
		}
	}
}

func TestAddFieldErrors(t *testing.T) {
	p := planner(t, "x86_64")
	l, _ := p.Begin("C")

	for _, sz := range []int{0, -4} {
		_, err := l.AddField("bad", sz)
		if !errors.Is(err, objerr.ErrInvalidFieldSize) {
			t.Errorf("size %d: got %v", sz, err)
		}
	}
	if _, err := l.AddField("x", 4); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddField("x", 4); !errors.Is(err, objerr.ErrDuplicateMember) {
		t.Errorf("duplicate: got %v", err)
	}
	if _, err := l.AddField("no good", 4); !errors.Is(err, objerr.ErrInvalidName) {
		t.Errorf("name: got %v", err)
	}
	if l.Size() != 12 {
		t.Errorf("failed adds must not change size, got %d", l.Size())
	}

	l.Finish()
	if _, err := l.AddField("late", 4); !errors.Is(err, objerr.ErrSealed) {
		t.Errorf("after finish: got %v", err)
	}
	if _, err := p.Begin("1st"); !errors.Is(err, objerr.ErrInvalidName) {
		t.Errorf("class name: got %v", err)
	}
}

func TestAddFieldObjectLimit(t *testing.T) {
	tests := []struct {
		arch  string
		sizes []int
	}{
		{"mips32", []int{math.MaxInt}},
		{"mips32", []int{1 << 30, 1 << 30}},
		{"wasm32", []int{1<<31 - 4}},
		{"x86_64", []int{math.MaxInt}},
		{"x86_64", []int{math.MaxInt / 2, math.MaxInt / 2}},
		{"riscv64", []int{math.MaxInt - 16}},
	}
	for _, tt := range tests {
		p := planner(t, tt.arch)
		l, _ := p.Begin("Big")
		last := len(tt.sizes) - 1
		for i, sz := range tt.sizes[:last] {
			if _, err := l.AddField(fieldName(i), sz); err != nil {
				t.Fatalf("%s: field %d: %v", tt.arch, i, err)
			}
		}
		before := l.Size()
		_, err := l.AddField("tail", tt.sizes[last])
		if !errors.Is(err, objerr.ErrInvalidFieldSize) {
			t.Errorf("%s %v: got %v", tt.arch, tt.sizes, err)
		}
		if l.Size() != before {
			t.Errorf("%s: rejected field changed size to %d", tt.arch, l.Size())
		}
		off, err := l.AddField("small", 4)
		if err != nil || off != before {
			t.Errorf("%s: small field after rejection: %d, %v", tt.arch, off, err)
		}
	}
}

func TestExtend(t *testing.T) {
	for _, name := range arch.Names() {
		p := planner(t, name)
		w := p.Width()

		animal, _ := p.Begin("Animal")
		animal.AddField("age", 4)
		animal.Finish()

		dog, err := p.Extend(animal, "Dog")
		if err != nil {
			t.Fatalf("%s: Extend: %v", name, err)
		}
		if dog.Base() != animal.Size() || dog.Size() != animal.Size() {
			t.Errorf("%s: child starts at %d, want parent size %d", name, dog.Size(), animal.Size())
		}
		off, _ := dog.AddField("breedId", 4)
		dog.Finish()

		wantOff := w + 4
		if w == 8 {
			// Animal pads to 16, so the child field follows the padding.
			wantOff = 16
		}
		if off != wantOff {
			t.Errorf("%s: breedId offset %d, want %d", name, off, wantOff)
		}

		age, ok := dog.Field("age")
		if !ok {
			t.Fatalf("%s: inherited field not found", name)
		}
		parentAge, _ := animal.Field("age")
		if age != parentAge {
			t.Errorf("%s: inherited field %+v differs from parent %+v", name, age, parentAge)
		}
		if len(dog.Fields()) != 2 || len(dog.Own()) != 1 {
			t.Errorf("%s: fields %v own %v", name, dog.Fields(), dog.Own())
		}
		if dog.Parent() != animal {
			t.Errorf("%s: parent link lost", name)
		}
	}
}

func TestExtendUnfinishedParent(t *testing.T) {
	p := planner(t, "aarch64")
	base, _ := p.Begin("Base")
	base.AddField("a", 4)

	_, err := p.Extend(base, "Derived")
	if !errors.Is(err, objerr.ErrUnfinishedParent) {
		t.Fatalf("expected unfinished parent, got %v", err)
	}
	if _, err := p.Extend(nil, "Derived"); !errors.Is(err, objerr.ErrNotFound) {
		t.Errorf("nil parent: got %v", err)
	}
}

func TestExtendWidthMismatch(t *testing.T) {
	p64 := planner(t, "x86_64")
	p32 := planner(t, "mips32")
	base, _ := p64.Begin("Base")
	base.Finish()
	if _, err := p32.Extend(base, "D"); !errors.Is(err, objerr.ErrConfiguration) {
		t.Errorf("got %v", err)
	}
}

func TestShadowedField(t *testing.T) {
	p := planner(t, "riscv64")
	base, _ := p.Begin("Base")
	base.AddField("id", 4)
	base.Finish()
	d, _ := p.Extend(base, "Derived")
	off, err := d.AddField("id", 8)
	if err != nil {
		t.Fatalf("shadowing must be allowed: %v", err)
	}
	f, _ := d.Field("id")
	if f.Offset != off || f.Class != "Derived" {
		t.Errorf("lookup should resolve own field, got %+v", f)
	}
}

func TestPad(t *testing.T) {
	tests := []struct{ size, width, want int }{
		{8, 8, 0}, {9, 8, 7}, {12, 8, 4}, {15, 8, 1}, {4, 4, 0}, {5, 4, 3},
	}
	for _, tt := range tests {
		if got := Pad(tt.size, tt.width); got != tt.want {
			t.Errorf("Pad(%d, %d): got %d, want %d", tt.size, tt.width, got, tt.want)
		}
	}
}
