package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/smasonuk/tlfront/internal/logio"
	"github.com/smasonuk/tlfront/pkg/compiler"
)

const (
	historyFile = ".tlrepl_history"
	promptMain  = "tl> "
	promptCont  = "... "
)

type session struct {
	kind       compiler.FileKind
	imports    []compiler.Import
	showTokens bool
	log        *logio.Logger
	out        io.Writer
}

func main() {
	kindName := flag.String("kind", "lib", "file kind of each entry: exe, lib, test or bindings")
	flag.Parse()

	kind, err := compiler.ParseFileKind(*kindName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	s := &session{kind: kind, log: logio.New(os.Stderr), out: os.Stdout}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	fmt.Println("tl front end. Commands: :tokens, :kind NAME, :import name/arity[/prec], :quit")
	for {
		src, ok := readEntry(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if s.command(src) {
			return
		}
	}
}

// readEntry keeps prompting while the text so far ends inside an open
// bracket or string.
func readEntry(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if _, err := compiler.Lex([]byte(b.String())); compiler.IsIncomplete(err) {
			continue
		}
		return b.String(), true
	}
}

// command handles one entry and reports whether the session should end.
func (s *session) command(src string) (quit bool) {
	line := strings.TrimSpace(src)
	if !strings.HasPrefix(line, ":") {
		s.eval([]byte(src))
		return false
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return true
	case ":tokens":
		s.showTokens = !s.showTokens
		fmt.Fprintf(s.out, "token dump %v\n", s.showTokens)
	case ":kind":
		kind, err := compiler.ParseFileKind(arg)
		if err != nil {
			s.log.Print("ERROR", err.Error())
			break
		}
		s.kind = kind
	case ":import":
		imp, err := compiler.ParseImport(arg)
		if err != nil {
			s.log.Print("ERROR", err.Error())
			break
		}
		s.imports = append(s.imports, imp)
	default:
		s.log.Printf("ERROR", "unknown command %s", name)
	}
	return false
}

func (s *session) eval(src []byte) {
	toks, tree, err := compiler.Compile(src, s.kind, s.imports)
	if toks != nil && s.showTokens {
		fmt.Fprint(s.out, toks)
	}
	if err != nil {
		s.log.Print("ERROR", err.Error())
		return
	}
	fmt.Fprint(s.out, tree)
}
