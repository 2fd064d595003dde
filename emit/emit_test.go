package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	objerr "github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/schema"
)

const zoo = `
classes:
  - name: Animal
    rtti: leading-record
    fields:
      - {name: age, size: 4}
    methods:
      - {name: destroy, entry: Animal_destroy}
      - {name: speak, entry: Animal_speak}
  - name: Dog
    extends: Animal
    rtti: leading-record
    fields:
      - {name: breedId, size: 4}
    methods:
      - {name: speak, entry: Dog_speak}
      - {name: fetch, entry: Dog_fetch}
  - name: Rock
    fields:
      - {name: mass, size: 8}
  - name: Tag
    rtti: slot-0-identity
    fields:
      - {name: id, size: 4}
`

// callOps are the mnemonics that transfer control to malloc, free or a
// method on each backend.
var callOps = map[string]struct{ direct, indirect string }{
	"x86_64":  {"call", "call"},
	"aarch64": {"bl", "blr"},
	"mips32":  {"jal", "jalr"},
	"riscv64": {"call", "jalr"},
	"wasm32":  {"call", "call_indirect"},
}

func setup(t *testing.T, archName string) (*Emitter, *class.Registry) {
	t.Helper()
	b, err := arch.Lookup(archName)
	if err != nil {
		t.Fatal(err)
	}
	s, err := schema.Parse([]byte(zoo))
	if err != nil {
		t.Fatal(err)
	}
	reg, err := s.Build(b)
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(b, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return e, reg
}

func get(t *testing.T, reg *class.Registry, name string) *class.Descriptor {
	t.Helper()
	d, err := reg.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func lines(s asm.Seq) []string {
	var out []string
	for _, in := range s.Strip() {
		out = append(out, in.String())
	}
	return out
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, objerr.ErrConfiguration) {
		t.Errorf("got %v", err)
	}
	e, _ := New(arch.AMD64{}, Options{})
	if e.Options().LabelPrefix != ".L" {
		t.Errorf("default label prefix: %q", e.Options().LabelPrefix)
	}
}

func TestConstruct(t *testing.T) {
	for _, name := range arch.Names() {
		t.Run(name, func(t *testing.T) {
			e, reg := setup(t, name)
			b := e.Backend()
			dog := get(t, reg, "Dog")

			seq, err := e.Construct(dog, b.Result())
			if err != nil {
				t.Fatal(err)
			}
			text := seq.String()
			if !strings.Contains(text, "malloc") {
				t.Errorf("no allocation call:\n%s", text)
			}
			if !strings.Contains(text, "Dog_vtable") {
				t.Errorf("vtable address not installed:\n%s", text)
			}
			alloc := strings.Index(text, "malloc")
			install := strings.Index(text, "Dog_vtable")
			if alloc > install {
				t.Errorf("vtable installed before allocation:\n%s", text)
			}
			store := b.EmitStore(b.Scratch(0), b.Result(), 0)
			if !strings.Contains(text, store.String()) {
				t.Errorf("missing offset-0 store %q:\n%s", store.String(), text)
			}
		})
	}
}

func TestConstructX86(t *testing.T) {
	e, reg := setup(t, "x86_64")
	seq, err := e.Construct(get(t, reg, "Dog"), "%rax")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"mov $24, %rdi",
		"call malloc@PLT",
		"test %rax, %rax",
		"jz .LDog_new_null0",
		"leaq Dog_vtable(%rip), %rcx",
		"mov %rcx, (%rax)",
		".LDog_new_null0:",
	}
	if got := lines(seq); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestConstructIdentity(t *testing.T) {
	e, reg := setup(t, "aarch64")
	seq, err := e.Construct(get(t, reg, "Tag"), "x0")
	if err != nil {
		t.Fatal(err)
	}
	text := seq.String()
	if !strings.Contains(text, "Tag_typeinfo") || strings.Contains(text, "Tag_vtable") {
		t.Errorf("identity class must store its record at offset 0:\n%s", text)
	}
}

func TestDestruct(t *testing.T) {
	for _, name := range arch.Names() {
		t.Run(name, func(t *testing.T) {
			e, reg := setup(t, name)
			b := e.Backend()
			seq, err := e.Destruct(get(t, reg, "Dog"), b.Receiver())
			if err != nil {
				t.Fatal(err)
			}
			ops := callOps[name]
			if n := seq.Count(ops.indirect); name != "x86_64" && n != 1 {
				t.Errorf("indirect calls: got %d, want 1", n)
			}
			text := seq.String()
			if strings.Count(text, "free") != 1 {
				t.Errorf("free must be called once:\n%s", text)
			}
			if strings.Contains(text, "malloc") {
				t.Errorf("destruct must not allocate")
			}
			call := b.EmitIndirectCall(b.Scratch(1)).String()
			if !strings.Contains(text, call) {
				t.Errorf("destructor not called through scratch 1:\n%s", text)
			}
			if strings.Index(text, call) > strings.Index(text, "free") {
				t.Errorf("destructor must run before free:\n%s", text)
			}
		})
	}
}

func TestDestructX86(t *testing.T) {
	e, reg := setup(t, "x86_64")
	seq, err := e.Destruct(get(t, reg, "Dog"), "%rdi")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"test %rdi, %rdi",
		"jz .LDog_delete_null0",
		"sub $16, %rsp",
		"mov %rdi, (%rsp)",
		"mov (%rdi), %rcx",
		"mov (%rcx), %r11",
		"test %r11, %r11",
		"jz .LDog_delete_nodtor1",
		"call *%r11",
		".LDog_delete_nodtor1:",
		"mov (%rsp), %rdi",
		"add $16, %rsp",
		"call free@PLT",
		".LDog_delete_null0:",
	}
	if got := lines(seq); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestDestructWithoutVTable(t *testing.T) {
	e, reg := setup(t, "riscv64")

	_, err := e.Destruct(get(t, reg, "Rock"), "a0")
	if !errors.Is(err, objerr.ErrSlotOutOfRange) {
		t.Errorf("empty vtable: got %v", err)
	}

	seq, err := e.Destruct(get(t, reg, "Tag"), "a0")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(seq.Ops(), " "); got != "beqz call" {
		t.Errorf("identity destruct: got %q", got)
	}
}

func TestVirtualCall(t *testing.T) {
	for _, name := range arch.Names() {
		t.Run(name, func(t *testing.T) {
			e, reg := setup(t, name)
			b := e.Backend()
			dog := get(t, reg, "Dog")
			w := b.PointerWidth()

			for slot := 0; slot < dog.VTable.Len(); slot++ {
				seq, err := e.VirtualCall(dog, b.Receiver(), slot)
				if err != nil {
					t.Fatal(err)
				}
				want := asm.Join(
					b.EmitLoad(b.Scratch(0), b.Receiver(), 0),
					b.EmitLoad(b.Scratch(1), b.Scratch(0), slot*w),
					b.EmitIndirectCall(b.Scratch(1)),
				)
				if seq.String() != want.String() {
					t.Errorf("slot %d: got\n%s\nwant\n%s", slot, seq, want)
				}
			}
		})
	}
}

func TestVirtualCallMovesReceiver(t *testing.T) {
	e, reg := setup(t, "mips32")
	seq, err := e.CallMethod(get(t, reg, "Dog"), "$s0", "fetch")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"lw $t0, 0($s0)",
		"lw $t1, 8($t0)",
		"move $a0, $s0",
		"move $t9, $t1",
		"jalr $t9",
	}
	if got := lines(seq); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s", strings.Join(got, "\n"))
	}
}

func TestVirtualCallErrors(t *testing.T) {
	e, reg := setup(t, "x86_64")
	dog := get(t, reg, "Dog")

	for _, slot := range []int{-1, 3, 100} {
		if _, err := e.VirtualCall(dog, "%rdi", slot); !errors.Is(err, objerr.ErrSlotOutOfRange) {
			t.Errorf("slot %d: got %v", slot, err)
		}
	}
	if _, err := e.VirtualCall(get(t, reg, "Tag"), "%rdi", 0); !errors.Is(err, objerr.ErrConflictingRTTI) {
		t.Errorf("identity class: got %v", err)
	}
	if _, err := e.VirtualCall(dog, "%rcx", 0); err == nil {
		t.Errorf("handle in scratch register must be rejected")
	}
	if _, err := e.CallMethod(dog, "%rdi", "sleep"); !errors.Is(err, objerr.ErrNotFound) {
		t.Errorf("unknown method: got %v", err)
	}
	if _, err := e.VirtualCall(nil, "%rdi", 0); err == nil {
		t.Errorf("nil descriptor accepted")
	}

	other, _ := New(arch.MIPS32{}, DefaultOptions())
	if _, err := other.VirtualCall(dog, "$a0", 0); !errors.Is(err, objerr.ErrConfiguration) {
		t.Errorf("width mismatch: got %v", err)
	}
}

func TestRetype(t *testing.T) {
	e, reg := setup(t, "aarch64")
	seq, err := e.Retype(get(t, reg, "Animal"), "x0")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"adrp x9, Animal_vtable",
		"add x9, x9, :lo12:Animal_vtable",
		"str x9, [x0]",
	}
	if got := lines(seq); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s", strings.Join(got, "\n"))
	}
}

func TestFieldAccess(t *testing.T) {
	e, reg := setup(t, "x86_64")
	seq, err := e.LoadField(get(t, reg, "Rock"), "%rdi", "mass", "%rax")
	if err != nil {
		t.Fatal(err)
	}
	if seq.String() != "\tmov 8(%rdi), %rax\n" {
		t.Errorf("LoadField: %q", seq.String())
	}
	seq, err = e.StoreField(get(t, reg, "Rock"), "%rdi", "mass", "%rcx")
	if err != nil {
		t.Fatal(err)
	}
	if seq.String() != "\tmov %rcx, 8(%rdi)\n" {
		t.Errorf("StoreField: %q", seq.String())
	}
	if _, err := e.LoadField(get(t, reg, "Dog"), "%rdi", "age", "%rax"); !errors.Is(err, objerr.ErrUnsupported) {
		t.Errorf("narrow field: got %v", err)
	}
	if _, err := e.LoadField(get(t, reg, "Dog"), "%rdi", "tail", "%rax"); !errors.Is(err, objerr.ErrNotFound) {
		t.Errorf("missing field: got %v", err)
	}

	we, wreg := setup(t, "wasm32")
	seq, err = we.LoadField(get(t, wreg, "Dog"), "0", "breedId", "3")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(lines(seq), "; "); got != "local.get 0; i32.load offset=8; local.set 3" {
		t.Errorf("wasm LoadField: %q", got)
	}
}
