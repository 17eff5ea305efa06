// Command jdis disassembles Java class files, alone or inside .jar/.zip
// archives, into jasm assembler text or a javap-like table.
package main

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/davecgh/go-spew/spew"
	"github.com/pborman/getopt"
	"github.com/zboralski/lattice/render"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/callgraph"
	"github.com/openjdk/asmtools-sub002/jvm/classfile"
	"github.com/openjdk/asmtools-sub002/jvm/config"
	"github.com/openjdk/asmtools-sub002/jvm/disasm"
	"github.com/openjdk/asmtools-sub002/jvm/output"
)

func printDiag(file string, d jvm.Diagnostic) {
	if d.Member != "" {
		fmt.Fprintf(os.Stderr, "%s: diag [%s] %s @0x%x: %s\n", file, d.Kind, d.Member, d.Offset, d.Msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s: diag [%s] @0x%x: %s\n", file, d.Kind, d.Offset, d.Msg)
	}
}

type driver struct {
	opt       jvm.Options
	sink      output.Sink
	outDir    string
	postPrint bool
	dump      bool
	cfg       bool
	calls     bool
	svg       bool
}

func main() {
	modeName := getopt.StringLong("mode", 'm', "", "decode mode: strict, besteffort")
	profile := getopt.StringLong("profile", 'p', "", "YAML option profile", "FILE")
	target := getopt.StringLong("target-version", 0, "", "override class file version (major[:minor])", "VER")
	maxSteps := getopt.IntLong("max-steps", 0, 0, "safety cap for decode loops (0 uses default)")
	outDir := getopt.StringLong("out-dir", 'd', "", "write one file per class under DIR", "DIR")
	postPrint := getopt.BoolLong("post-print", 0, "render the partial model when decoding fails")
	dump := getopt.BoolLong("dump", 0, "dump the decoded model to stderr")
	cfgFlag := getopt.BoolLong("cfg", 0, "write a control flow graph (.cfg.dot) per class")
	callsFlag := getopt.BoolLong("callgraph", 0, "write a call graph (.dot) per class")
	svg := getopt.BoolLong("svg", 0, "run graphviz dot on written graphs")
	flagSet := map[string]*bool{}
	for _, name := range jvm.FlagNames() {
		flagSet[name] = getopt.BoolLong(name, 0, "rendering flag "+name)
	}
	getopt.SetParameters("FILE.class|FILE.jar ...")
	getopt.Parse()
	args := getopt.Args()
	if len(args) == 0 {
		getopt.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	opt := jvm.DefaultOptions()
	if *profile != "" {
		var err error
		if opt, err = config.Load(*profile); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	}
	var cli jvm.Options
	if *modeName != "" {
		mode, err := jvm.ParseMode(*modeName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		cli.Mode = mode
	}
	if *target != "" {
		v, err := jvm.ParseVersion(*target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		cli.TargetVersion = v
	}
	cli.MaxSteps = *maxSteps
	for name, set := range flagSet {
		if *set {
			f, _ := jvm.FlagByName(name)
			cli.Flags |= f
		}
	}
	opt = config.Merge(opt, cli, *modeName != "")

	d := &driver{
		opt:       opt,
		outDir:    *outDir,
		postPrint: *postPrint,
		dump:      *dump,
		cfg:       *cfgFlag,
		calls:     *callsFlag,
		svg:       *svg,
	}
	if *svg {
		if _, err := exec.LookPath("dot"); err != nil {
			fmt.Fprintf(os.Stderr, "error: graphviz not found (install with: brew install graphviz)\n")
			os.Exit(1)
		}
	}
	if d.outDir != "" {
		ext := "jasm"
		if opt.Has(jvm.TableFormat) {
			ext = "jtab"
		}
		d.sink = output.NewDir(d.outDir, ext)
	} else {
		d.sink = output.NewStream(os.Stdout)
	}

	failed := 0
	for _, path := range args {
		failed += d.input(path)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d input(s) failed\n", failed)
		os.Exit(1)
	}
}

// input processes one command line argument and returns the number of
// classes that failed.
func (d *driver) input(path string) int {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip", ".jmod":
		return d.archive(path)
	}
	data, err := classfile.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if d.outDir != "" {
		base = ""
	}
	if err := d.class(path, base, data); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", path, err)
		return 1
	}
	return 0
}

func (d *driver) archive(path string) int {
	zr, err := zip.OpenReader(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer zr.Close()
	failed := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		label := path + "!" + f.Name
		data, err := readEntry(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", label, err)
			failed++
			continue
		}
		if err := d.class(label, "", data); err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", label, err)
			failed++
		}
	}
	return failed
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// class decodes and renders one class. graphBase, when set, is the path
// prefix for graph files; otherwise they go under the output directory
// or the working directory, named after the class.
func (d *driver) class(label, graphBase string, data []byte) (err error) {
	defer func() {
		if _err := derror.PanicToError(recover()); _err != nil {
			err = _err
		}
	}()

	res, decodeErr := classfile.Decode(data, d.opt)
	for _, dg := range res.Diags {
		printDiag(label, dg)
	}
	cf := res.Value
	if d.dump && cf != nil {
		spew.Fdump(os.Stderr, cf)
	}
	if decodeErr != nil {
		if !d.postPrint || cf == nil {
			return decodeErr
		}
		if err := d.emit(label, cf, fmt.Sprintf("// ---- partial (decode failed: %v) ----\n", decodeErr)); err != nil {
			return errors.Join(decodeErr, err)
		}
		return decodeErr
	}
	if err := d.emit(label, cf, ""); err != nil {
		return err
	}
	return d.graphs(cf, graphBase)
}

func (d *driver) emit(label string, cf *jvm.ClassFile, banner string) error {
	out := disasm.Render(cf, d.opt)
	for _, dg := range out.Diags {
		printDiag(label, dg)
	}
	name := cf.Name()
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(label), ".class")
	}
	if err := d.sink.StartClass(name); err != nil {
		return err
	}
	if banner != "" {
		if err := d.sink.WriteString(banner); err != nil {
			return err
		}
	}
	if err := d.sink.WriteString(out.Value); err != nil {
		return err
	}
	return d.sink.FinishClass()
}

func (d *driver) graphs(cf *jvm.ClassFile, base string) error {
	if !d.cfg && !d.calls {
		return nil
	}
	if base == "" {
		rel, err := output.SafeRel(cf.Name())
		if err != nil {
			return err
		}
		base = filepath.Join(d.outDir, rel)
	}
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return err
	}
	title := cf.DottedName()
	if d.cfg {
		if err := d.writeGraph(base+".cfg", render.DOTCFG(callgraph.BuildCFG(cf, d.opt), title)); err != nil {
			return err
		}
	}
	if d.calls {
		if err := d.writeGraph(base, render.DOT(callgraph.Build(cf, d.opt), title)); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) writeGraph(base, dot string) error {
	dotFile := base + ".dot"
	if err := os.WriteFile(dotFile, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", dotFile, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", dotFile)
	if !d.svg {
		return nil
	}
	outFile := base + ".svg"
	cmd := exec.Command("dot", "-Tsvg", "-o", outFile, dotFile)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dot -Tsvg failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)
	return nil
}
