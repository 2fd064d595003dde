package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/emit"
	"github.com/wippyai/objgen/runtime"
	"github.com/wippyai/objgen/schema"
	"github.com/wippyai/objgen/vtable"
	"github.com/wippyai/objgen/wasm"
)

type options struct {
	schemaFile  string
	archName    string
	output      string
	list        bool
	run         bool
	interactive bool
	verbose     bool
	noThunks    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("objgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.schemaFile, "schema", "", "Path to class schema (YAML or JSON)")
	fs.StringVar(&o.archName, "arch", "x86_64", "Target backend, or \"all\" ("+strings.Join(arch.Names(), ", ")+")")
	fs.StringVar(&o.output, "o", "", "Output file (directory with -arch all); stdout when empty")
	fs.BoolVar(&o.list, "list", false, "Print class layouts and exit")
	fs.BoolVar(&o.run, "run", false, "Execute every class under the wasm32 runtime")
	fs.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	fs.BoolVar(&o.verbose, "v", false, "Debug logging")
	fs.BoolVar(&o.noThunks, "no-thunks", false, "Emit tables only")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.schemaFile == "" {
		return o, fmt.Errorf("missing -schema")
	}
	return o, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: objgen -schema <classes.yaml> [-arch x86_64] [-o out.s]")
	fmt.Fprintln(w, "       objgen -schema <classes.yaml> -arch all -o <dir>")
	fmt.Fprintln(w, "       objgen -schema <classes.yaml> -list")
	fmt.Fprintln(w, "       objgen -schema <classes.yaml> -run")
	fmt.Fprintln(w, "       objgen -schema <classes.yaml> -i  (interactive mode)")
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		usage(os.Stderr)
		os.Exit(1)
	}

	if o.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		class.SetLogger(log.Named("class"))
		emit.SetLogger(log.Named("emit"))
		runtime.SetLogger(log.Named("runtime"))
	}

	if o.interactive {
		if err := runInteractive(o); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	s, err := schema.Load(o.schemaFile)
	if err != nil {
		return err
	}

	switch {
	case o.list:
		b, err := arch.Lookup(o.archName)
		if err != nil {
			return err
		}
		reg, err := s.Build(b)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, layoutTable(reg, isTerminal(stdout), ""))
		return nil

	case o.run:
		return runScenario(ctx, s, stdout)
	}

	emitOpts := emit.DefaultOptions()
	emitOpts.Thunks = !o.noThunks

	if o.archName != "all" {
		return generate(s, o.archName, emitOpts, o.output, stdout)
	}
	for _, name := range arch.Names() {
		out := ""
		if o.output != "" {
			if err := os.MkdirAll(o.output, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			out = filepath.Join(o.output, name+outputExt(name))
		} else if name == (arch.Wasm32{}).Name() {
			continue
		}
		if err := generate(s, name, emitOpts, out, stdout); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func outputExt(archName string) string {
	if archName == (arch.Wasm32{}).Name() {
		return ".wasm"
	}
	return ".s"
}

// generate writes one backend's output to path, or to stdout when path is empty.
func generate(s *schema.Schema, archName string, opts emit.Options, path string, stdout io.Writer) error {
	b, err := arch.Lookup(archName)
	if err != nil {
		return err
	}
	reg, err := s.Build(b)
	if err != nil {
		return err
	}
	e, err := emit.New(b, opts)
	if err != nil {
		return err
	}
	u, err := e.BuildUnit(reg)
	if err != nil {
		return err
	}

	if _, text := b.(arch.TextTarget); !text {
		if path == "" {
			return fmt.Errorf("%s output is binary, use -o", b.Name())
		}
		m, _, err := wasm.BuildModule(u, wasm.ModuleConfig{})
		if err != nil {
			return err
		}
		return os.WriteFile(path, m.Encode(), 0o644)
	}

	if path == "" {
		return emit.WriteAssembly(stdout, u)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := emit.WriteAssembly(f, u); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// layoutTable renders one row per field and one per slot of every class,
// or of class only when it is not empty.
func layoutTable(reg *class.Registry, styled bool, only string) string {
	t := table.New().Headers("CLASS", "MEMBER", "OFFSET", "SIZE", "FROM")
	if styled {
		t = t.Border(lipgloss.RoundedBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
	} else {
		t = t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(int, int) lipgloss.Style { return cellStyle })
	}

	for _, d := range reg.Classes() {
		if only != "" && d.Name != only {
			continue
		}
		parent := "-"
		if d.Parent != nil {
			parent = d.Parent.Name
		}
		t.Row(d.Name, "<dispatch>", "0", strconv.Itoa(d.Width), d.RTTI.String())
		for _, f := range d.Fields {
			t.Row(d.Name, f.Name, strconv.Itoa(f.Offset), strconv.Itoa(f.Size), f.Class)
		}
		if d.Padding > 0 {
			t.Row(d.Name, "<padding>", strconv.Itoa(d.Size-d.Padding), strconv.Itoa(d.Padding), "")
		}
		t.Row(d.Name, "<size>", "", strconv.Itoa(d.Size), "extends "+parent)
		if d.Dispatches() {
			for _, sl := range d.VTable.Slots() {
				entry := sl.Entry
				if sl.Null() {
					entry = "null"
				}
				t.Row(d.Name, sl.Method+"()", "slot "+strconv.Itoa(sl.Index), entry, sl.Class)
			}
		}
	}
	return t.Render()
}

// runScenario constructs every class under the wasm32 runtime, calls each
// non-null slot through the emitted thunks and deletes the object again.
func runScenario(ctx context.Context, s *schema.Schema, w io.Writer) error {
	b, err := arch.Lookup("wasm32")
	if err != nil {
		return err
	}
	reg, err := s.Build(b)
	if err != nil {
		return err
	}

	inst, err := runtime.New(ctx, reg, runtime.Config{})
	if err != nil {
		return err
	}
	defer inst.Close(ctx)
	for i, entry := range inst.Layout().Imports {
		entry := entry
		id := uint32(i + 1)
		err := inst.SetMethod(entry, func(_ context.Context, self uint32) uint32 {
			fmt.Fprintf(w, "    %s(self=%#x)\n", entry, self)
			return id
		})
		if err != nil {
			return err
		}
	}

	for _, d := range reg.Classes() {
		obj, err := inst.New(ctx, d.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: new -> %#x\n", d.Name, obj.Ptr)
		if obj.IsNil() {
			continue
		}

		if d.TypeInfo != nil {
			name, err := inst.TypeName(ctx, obj)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  typename %q\n", name)
		}
		if d.Dispatches() {
			for _, sl := range d.VTable.Slots() {
				if sl.Null() || sl.Index == vtable.DestructorSlot {
					continue
				}
				fmt.Fprintf(w, "  %s()\n", sl.Method)
				if _, err := inst.CallSlot(ctx, obj, sl.Index); err != nil {
					return err
				}
			}
		}
		if d.Dispatches() && d.VTable.Len() == 0 {
			fmt.Fprintf(w, "  no destructor slot, not deleted\n")
			continue
		}
		fmt.Fprintf(w, "  delete\n")
		if err := inst.Delete(ctx, obj); err != nil {
			return err
		}
	}

	st := inst.Heap().Stats()
	fmt.Fprintf(w, "heap: %d allocs, %d frees, %d live\n", st.Allocs, st.Frees, st.Live)
	return nil
}
