package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smasonuk/tlfront/internal/logio"
	"github.com/smasonuk/tlfront/pkg/compiler"
	"github.com/smasonuk/tlfront/pkg/utils"
)

// importList collects repeated -import flags.
type importList []compiler.Import

func (l *importList) String() string {
	parts := make([]string, len(*l))
	for i, imp := range *l {
		parts[i] = fmt.Sprintf("%s/%d/%d", imp.Name, imp.Arity, imp.Precedence)
	}
	return strings.Join(parts, ",")
}

func (l *importList) Set(s string) error {
	imp, err := compiler.ParseImport(s)
	if err != nil {
		return err
	}
	*l = append(*l, imp)
	return nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("tlfront", flag.ContinueOnError)
	flags.SetOutput(stderr)
	kindName := flags.String("kind", "", "file kind for every input: exe, lib, test or bindings (default: from the file name)")
	workers := flags.Int("j", 0, "units compiled at once (default: GOMAXPROCS)")
	keepGoing := flags.Bool("keep-going", false, "keep compiling after a unit fails")
	trace := flags.Bool("trace", false, "log a line per compiled unit")
	dumpTokens := flags.Bool("tokens", false, "dump the token buffer of each unit")
	dumpAST := flags.Bool("ast", false, "dump the AST of each unit")
	var imports importList
	flags.Var(&imports, "import", "declare an external function as name/arity[/precedence]; repeatable")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: tlfront [flags] file-or-dir...")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(stderr, "nothing to do: name at least one source file or directory")
		flags.Usage()
		return 2
	}

	forceKind := false
	var kind compiler.FileKind
	if *kindName != "" {
		k, err := compiler.ParseFileKind(*kindName)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		kind, forceKind = k, true
	}

	log := logio.New(stderr)
	log.Mute("TRACE", !*trace)

	paths, err := utils.ExpandSources(flags.Args(), utils.SourceExt)
	if err != nil {
		log.Errorf("%v", err)
		return log.ExitCode()
	}
	units, err := loadUnits(paths)
	if err != nil {
		log.Errorf("%v", err)
		return log.ExitCode()
	}
	if forceKind {
		for i := range units {
			units[i].Kind = kind
		}
	}

	results, err := compiler.CompileAll(ctx, units, imports,
		compiler.WithWorkers(*workers),
		compiler.WithKeepGoing(*keepGoing),
		compiler.WithLogf(log.Leveledf("TRACE")),
	)

	out := logio.New(stdout)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			if errors.Is(res.Err, context.Canceled) && err != nil {
				log.Printf("TRACE", "%s: skipped", res.Unit)
				continue
			}
			failed++
			log.Errorf("%v", res.Err)
			continue
		}
		if *dumpTokens {
			log.ErrorIf(dump(out, res.Unit+" tokens", res.Tokens.Dump))
		}
		if *dumpAST {
			log.ErrorIf(dump(out, res.Unit+" ast", res.AST.Dump))
		}
	}
	log.Printf("TRACE", "%d units, %d failed", len(units), failed)
	return log.ExitCode()
}

func loadUnits(paths []string) ([]compiler.Unit, error) {
	units := make([]compiler.Unit, 0, len(paths))
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file %q: %w", p, err)
		}
		units = append(units, compiler.Unit{Name: p, Source: src, Kind: utils.KindForPath(p)})
	}
	return units, nil
}

// dump routes a Dump listing through out, one line per record, each line
// labelled with level.
func dump(out *logio.Logger, level string, fn func(io.Writer) error) error {
	w := &logio.Writer{Logf: out.Leveledf(level)}
	if err := fn(w); err != nil {
		return err
	}
	return w.Close()
}
