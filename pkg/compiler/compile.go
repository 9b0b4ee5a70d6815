package compiler

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/smasonuk/tlfront/internal/panicerr"
)

// Compile runs the front end over one unit: lex, then parse.
func Compile(src []byte, kind FileKind, imports []Import) (*Tokens, *AST, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, nil, err
	}
	tree, err := Parse(toks, kind, imports)
	if err != nil {
		return toks, nil, err
	}
	return toks, tree, nil
}

// Unit is one source file handed to CompileAll.
type Unit struct {
	Name   string
	Source []byte
	Kind   FileKind
}

// Result is the outcome of one unit. Tokens may be set even when Err is,
// if lexing succeeded and parsing did not.
type Result struct {
	Unit   string
	Tokens *Tokens
	AST    *AST
	Err    error
}

type config struct {
	logf      func(format string, args ...interface{})
	workers   int
	keepGoing bool
}

// Option configures CompileAll.
type Option func(*config)

// WithLogf installs a trace hook called once per finished unit.
func WithLogf(logf func(format string, args ...interface{})) Option {
	return func(c *config) { c.logf = logf }
}

// WithWorkers bounds how many units are compiled at once. Values below one
// mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithKeepGoing makes a failed unit record its error in its Result instead
// of cancelling the remaining units.
func WithKeepGoing(keepGoing bool) Option {
	return func(c *config) { c.keepGoing = keepGoing }
}

// CompileAll compiles independent units in parallel. Each unit owns its
// buffers; imports are only read. Results are in the order of units.
//
// Without keep-going, the first failure cancels the units not yet started
// and is returned. A panic inside a unit is returned as that unit's error.
func CompileAll(ctx context.Context, units []Unit, imports []Import, opts ...Option) ([]Result, error) {
	cfg := config{
		logf:    func(string, ...interface{}) {},
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(units))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := range units {
		u := units[i]
		res := &results[i]
		res.Unit = u.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return err
			}
			err := panicerr.Recover(u.Name, func() error {
				toks, tree, err := Compile(u.Source, u.Kind, imports)
				res.Tokens, res.AST = toks, tree
				return err
			})
			if err != nil {
				res.Err = fmt.Errorf("%s: %w", u.Name, err)
				cfg.logf("%s: %v", u.Name, err)
				if cfg.keepGoing {
					return nil
				}
				return res.Err
			}
			cfg.logf("%s: %d tokens, %d nodes, %d functions", u.Name, res.Tokens.Len(), res.AST.Len(), len(res.AST.Functions))
			return nil
		})
	}
	return results, g.Wait()
}
