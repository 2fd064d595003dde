package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/objgen/arch"
	objerr "github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/vtable"
)

const animalsYAML = `
classes:
  - name: Dog
    extends: Animal
    fields:
      - {name: breedId, size: 4}
    methods:
      - {name: speak, entry: Dog_speak}
      - {name: fetch, entry: Dog_fetch}
  - name: Animal
    rtti: leading-record
    fields:
      - {name: age, size: 4}
    methods:
      - {name: speak, entry: Animal_speak}
`

const animalsJSON = `{
  "classes": [
    {"name": "Animal", "rtti": "leading-record",
     "fields": [{"name": "age", "size": 4}],
     "methods": [{"name": "speak", "entry": "Animal_speak"}]},
    {"name": "Dog", "extends": "Animal",
     "fields": [{"name": "breedId", "size": 4}],
     "methods": [{"name": "speak", "entry": "Dog_speak"}, {"name": "fetch", "entry": "Dog_fetch"}]}
  ]
}`

func backend(t *testing.T, name string) arch.Backend {
	t.Helper()
	b, err := arch.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestParseAndBuild(t *testing.T) {
	for name, src := range map[string]string{"yaml": animalsYAML, "json": animalsJSON} {
		t.Run(name, func(t *testing.T) {
			s, err := Parse([]byte(src))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(s.Classes) != 2 {
				t.Fatalf("classes: got %d", len(s.Classes))
			}
			reg, err := s.Build(backend(t, "mips32"))
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			dog, ok := reg.Get("Dog")
			if !ok {
				t.Fatal("Dog not built")
			}
			if dog.Size != 12 || dog.VTable.Len() != 2 {
				t.Errorf("Dog: size %d slots %d", dog.Size, dog.VTable.Len())
			}
			if off, _ := reg.Offset("Dog", "breedId"); off != 8 {
				t.Errorf("breedId offset %d, want 8", off)
			}
			animal, _ := reg.Get("Animal")
			if animal.RTTI != vtable.RTTILeading || dog.RTTI != vtable.RTTINone {
				t.Errorf("rtti: animal %s dog %s", animal.RTTI, dog.RTTI)
			}
			if reg.Classes()[0].Name != "Animal" {
				t.Errorf("parent must be declared first")
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	s, _ := Parse([]byte(animalsYAML))
	a, err := s.Build(backend(t, "x86_64"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Build(backend(t, "x86_64"))
	for _, d := range a.Classes() {
		e, _ := b.Get(d.Name)
		if d.Size != e.Size || len(d.Fields) != len(e.Fields) {
			t.Errorf("%s differs between builds", d.Name)
		}
		for i, entry := range d.VTable.Entries() {
			if e.VTable.Entries()[i] != entry {
				t.Errorf("%s slot %d differs", d.Name, i)
			}
		}
	}
}

func TestRTTIList(t *testing.T) {
	s, err := Parse([]byte(`
classes:
  - name: Both
    rtti: [leading-record, slot-0-identity]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Classes[0].RTTI) != 2 {
		t.Fatalf("modes: %v", s.Classes[0].RTTI)
	}
	_, err = s.Build(backend(t, "x86_64"))
	if !errors.Is(err, objerr.ErrConflictingRTTI) {
		t.Fatalf("expected conflicting rtti, got %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "zero field size",
			src:  "classes: [{name: A, fields: [{name: x, size: 0}]}]",
			want: objerr.ErrInvalidFieldSize,
		},
		{
			name: "negative field size",
			src:  "classes: [{name: A, fields: [{name: x, size: -8}]}]",
			want: objerr.ErrInvalidFieldSize,
		},
		{
			name: "field larger than address space",
			src:  "classes: [{name: A, fields: [{name: x, size: 9223372036854775807}]}]",
			want: objerr.ErrInvalidFieldSize,
		},
		{
			name: "object larger than address space",
			src:  "classes: [{name: A, fields: [{name: x, size: 4611686018427387904}, {name: y, size: 4611686018427387904}]}]",
			want: objerr.ErrInvalidFieldSize,
		},
		{
			name: "unknown parent",
			src:  "classes: [{name: A, extends: Ghost}]",
			want: objerr.ErrNotFound,
		},
		{
			name: "cycle",
			src:  "classes: [{name: A, extends: B}, {name: B, extends: A}]",
			want: objerr.ErrUnfinishedParent,
		},
		{
			name: "self parent",
			src:  "classes: [{name: A, extends: A}]",
			want: objerr.ErrUnfinishedParent,
		},
		{
			name: "duplicate class",
			src:  "classes: [{name: A}, {name: A}]",
			want: objerr.ErrDuplicateMember,
		},
		{
			name: "duplicate method",
			src:  "classes: [{name: A, methods: [{name: m, entry: A_m}, {name: m, entry: A_m2}]}]",
			want: objerr.ErrDuplicateMember,
		},
		{
			name: "bad class name",
			src:  "classes: [{name: 'my class'}]",
			want: objerr.ErrInvalidName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = s.Build(backend(t, "riscv64"))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	s, _ := Parse([]byte("classes: [{name: A, extends: B}, {name: B, extends: A}]"))
	if err := s.Validate(); !errors.Is(err, objerr.ErrUnfinishedParent) {
		t.Errorf("cycle: %v", err)
	}
	s, _ = Parse([]byte(animalsYAML))
	if err := s.Validate(); err != nil {
		t.Errorf("valid schema: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"classes: [{name: A, rtti: sideways}]",
		"classes: [{name: A, color: red}]",
		"classes: [{name: A, rtti: {mode: none}}]",
		"classes: {",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%q: expected parse error", src)
		}
	}
	s, err := Parse(nil)
	if err != nil || len(s.Classes) != 0 {
		t.Errorf("empty input: %v %v", s, err)
	}
}

func TestBuildRequiresBackend(t *testing.T) {
	s, _ := Parse([]byte(animalsYAML))
	if _, err := s.Build(nil); !errors.Is(err, objerr.ErrConfiguration) {
		t.Errorf("got %v", err)
	}
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.yaml")
	if err := os.WriteFile(path, []byte(animalsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	c, ok := again.Class("Animal")
	if !ok || len(c.RTTI) != 1 || c.RTTI[0] != vtable.RTTILeading {
		t.Errorf("Animal after round trip: %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, objerr.ErrNotFound) {
		t.Errorf("missing file: %v", err)
	}
}
