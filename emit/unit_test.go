package emit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/objgen/arch"
	objerr "github.com/wippyai/objgen/errors"
)

func TestBuildUnit(t *testing.T) {
	e, reg := setup(t, "x86_64")
	u, err := e.BuildUnit(reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Tables) != 4 {
		t.Fatalf("tables: %d", len(u.Tables))
	}
	want := []string{
		"Animal_new", "Animal_delete", "Animal_vcall_destroy", "Animal_vcall_speak", "Animal_retype",
		"Dog_new", "Dog_delete", "Dog_vcall_destroy", "Dog_vcall_speak", "Dog_vcall_fetch", "Dog_retype",
		"Rock_new", "Rock_retype",
		"Tag_new", "Tag_delete", "Tag_retype",
	}
	var got []string
	for _, f := range u.Funcs {
		got = append(got, f.Symbol)
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("thunks:\ngot  %v\nwant %v", got, want)
	}
	if strings.Join(u.Entries, " ") != "Animal_destroy Animal_speak Dog_speak Dog_fetch" {
		t.Errorf("entries: %v", u.Entries)
	}
	f, ok := u.Func("Dog_vcall_fetch")
	if !ok || f.Slot != 2 || f.Method != "fetch" || f.Kind != ThunkVCall {
		t.Errorf("Dog_vcall_fetch: %+v", f)
	}

	dog := u.Tables[1]
	if !dog.Leading || dog.Record[0] != "Dog_typename" || dog.Record[1] != "Animal_typeinfo" {
		t.Errorf("Dog table: %+v", dog)
	}
	if strings.Join(dog.Slots, ",") != "Animal_destroy,Dog_speak,Dog_fetch" {
		t.Errorf("Dog slots: %v", dog.Slots)
	}
	tag := u.Tables[3]
	if tag.HasVTable || tag.Leading || tag.Record == nil {
		t.Errorf("Tag table: %+v", tag)
	}
}

func TestBuildUnitWithoutThunks(t *testing.T) {
	_, reg := setup(t, "riscv64")
	e, _ := New(arch.RISCV64{}, Options{})
	u, err := e.BuildUnit(reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Funcs) != 0 {
		t.Errorf("thunks emitted: %d", len(u.Funcs))
	}

	other, _ := New(arch.AMD64{}, DefaultOptions())
	if _, err := other.BuildUnit(reg); !errors.Is(err, objerr.ErrConfiguration) {
		t.Errorf("arch mismatch: got %v", err)
	}
	if _, err := other.BuildUnit(nil); err == nil {
		t.Errorf("nil registry accepted")
	}
}

func TestWriteAssembly(t *testing.T) {
	tests := []struct {
		arch     string
		contains []string
	}{
		{"x86_64", []string{
			"# object model for x86_64, pointer width 8",
			".section .data.rel.ro, \"aw\"",
			"\t.balign 8\n\t.globl Dog_typeinfo\nDog_typeinfo:\n\t.quad Dog_typename\n\t.quad Animal_typeinfo\n\t.quad Dog_typeinfo\n\t.globl Dog_vtable\nDog_vtable:\n\t.quad Animal_destroy\n\t.quad Dog_speak\n\t.quad Dog_fetch\n",
			"Animal_typeinfo:\n\t.quad Animal_typename\n\t.quad 0\n",
			"Dog_typename:\n\t.asciz \"Dog\"",
			"Dog_new:\n\tpush %rbp",
			"call malloc@PLT",
			"\tpop %rbp\n\tret\n\t.size Dog_new, .-Dog_new",
		}},
		{"aarch64", []string{
			"// object model for aarch64",
			"Dog_vtable:\n\t.quad Animal_destroy",
			"bl malloc",
			"stp x29, x30, [sp, #-16]!",
		}},
		{"mips32", []string{
			"Dog_vtable:\n\t.word Animal_destroy\n\t.word Dog_speak",
			".balign 4",
			".ent Dog_new",
			"jalr $t9",
		}},
		{"riscv64", []string{
			"Dog_vtable:\n\t.dword Animal_destroy",
			"lla t0, Dog_vtable",
			"Tag_typeinfo:\n\t.dword Tag_typename\n\t.dword 0\n",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			e, reg := setup(t, tt.arch)
			u, err := e.BuildUnit(reg)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := WriteAssembly(&buf, u); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q\n%s", s, out)
				}
			}
			if strings.Contains(out, "Tag_vtable") {
				t.Errorf("identity class must not emit a vtable")
			}
		})
	}
}

func TestWriteAssemblyRejectsWasm(t *testing.T) {
	e, reg := setup(t, "wasm32")
	u, err := e.BuildUnit(reg)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteAssembly(&bytes.Buffer{}, u); !errors.Is(err, objerr.ErrUnsupported) {
		t.Errorf("got %v", err)
	}
}
