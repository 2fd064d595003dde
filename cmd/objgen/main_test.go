package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/objgen/arch"
)

const animals = "testdata/animals.yaml"

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-schema", animals, "-arch", "arm64", "-no-thunks", "-v"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if o.schemaFile != animals || o.archName != "arm64" || !o.noThunks || !o.verbose {
		t.Errorf("got %+v", o)
	}

	o, err = parseFlags([]string{"-schema", animals}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if o.archName != "x86_64" || o.list || o.run || o.interactive {
		t.Errorf("defaults: %+v", o)
	}

	if _, err := parseFlags(nil, io.Discard); err == nil {
		t.Error("missing -schema accepted")
	}
	if _, err := parseFlags([]string{"-bogus"}, io.Discard); err == nil {
		t.Error("unknown flag accepted")
	}
}

func TestGenerateText(t *testing.T) {
	tests := []struct {
		arch string
		want []string
	}{
		{"x86_64", []string{"Dog_vtable:", ".quad Dog_speak", "call malloc@PLT", "Dog_new:"}},
		{"aarch64", []string{"Dog_vtable:", ".quad Dog_speak", "bl malloc"}},
		{"mips32", []string{"Dog_vtable:", ".word Dog_speak", "jal malloc"}},
		{"riscv64", []string{"Dog_vtable:", ".dword Dog_speak", "call malloc"}},
	}
	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), options{schemaFile: animals, archName: tt.arch}, &out)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output lacks %q", w)
				}
			}
		})
	}
}

func TestGenerateNoThunks(t *testing.T) {
	var out bytes.Buffer
	o := options{schemaFile: animals, archName: "x86_64", noThunks: true}
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Dog_new:") {
		t.Error("thunk emitted with -no-thunks")
	}
	if !strings.Contains(out.String(), "Dog_typeinfo:") {
		t.Error("tables missing")
	}
}

func TestGenerateWasmNeedsOutput(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{schemaFile: animals, archName: "wasm32"}, &out)
	if err == nil {
		t.Fatal("binary output written to stdout")
	}
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	o := options{schemaFile: animals, archName: "all", output: dir}
	if err := run(context.Background(), o, io.Discard); err != nil {
		t.Fatal(err)
	}
	for _, name := range arch.Names() {
		path := filepath.Join(dir, name+outputExt(name))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s: empty", name)
		}
	}
	wasmBin, err := os.ReadFile(filepath.Join(dir, "wasm32.wasm"))
	if err == nil && !bytes.HasPrefix(wasmBin, []byte("\x00asm")) {
		t.Errorf("wasm32 output is not a module")
	}
}

func TestGenerateAllToStdout(t *testing.T) {
	var out bytes.Buffer
	o := options{schemaFile: animals, archName: "all"}
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"object model for x86_64", "object model for riscv64"} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("output lacks %q", w)
		}
	}
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	o := options{schemaFile: animals, archName: "x86_64", list: true}
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"breedId", "speak()", "Dog_speak", "leading-record", "null"} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("listing lacks %q:\n%s", w, out.String())
		}
	}
}

func TestRunScenario(t *testing.T) {
	var out bytes.Buffer
	o := options{schemaFile: animals, run: true}
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, w := range []string{
		`typename "Puppy"`,
		"Dog_speak(self=",
		"Animal_destroy(self=",
		"heap: 4 allocs, 4 frees, 0 live",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("output lacks %q:\n%s", w, got)
		}
	}
}

func TestRunMissingSchema(t *testing.T) {
	err := run(context.Background(), options{schemaFile: "testdata/missing.yaml", archName: "x86_64"}, io.Discard)
	if err == nil {
		t.Error("missing schema accepted")
	}
}

func TestClassCode(t *testing.T) {
	m := newInteractiveModel(options{schemaFile: animals, archName: "amd64"})
	msg := m.loadSchema()
	loaded, ok := msg.(loadedMsg)
	if !ok || loaded.err != nil {
		t.Fatalf("load: %+v", msg)
	}
	if m.archs[m.archIdx] != "x86_64" {
		t.Errorf("alias not resolved: %s", m.archs[m.archIdx])
	}
	code := classCode(loaded.targets["x86_64"].unit, "Dog")
	for _, w := range []string{"Dog_vtable:", "Dog_new:", "Dog_vcall_fetch:"} {
		if !strings.Contains(code, w) {
			t.Errorf("class code lacks %q", w)
		}
	}
	if strings.Contains(code, "Animal_new:") {
		t.Error("class code includes another class")
	}
}
