package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smasonuk/tlfront/pkg/compiler"
	"github.com/smasonuk/tlfront/pkg/utils"
)

const sampleSource = `## Sum of the first n integers.
sumTo = fn n {
  total := 0
  for i <- n { total += i }
  return total
}
sumTo 10
`

func main() {
	kindName := flag.String("kind", "", "file kind: exe, lib, test or bindings (default: from the file name)")
	flag.Parse()

	src := []byte(sampleSource)
	kind := compiler.Executable
	if flag.NArg() > 0 {
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "path error:", err)
			os.Exit(1)
		}
		src, err = os.ReadFile(fullPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		kind = utils.KindForPath(fullPath)
	}
	if *kindName != "" {
		k, err := compiler.ParseFileKind(*kindName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		kind = k
	}

	fmt.Printf("Source (%s):\n%s\n", kind, src)

	toks, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Tokens (%d)\n", toks.Len())
	fmt.Print(toks)
	fmt.Println()

	tree, err := compiler.Parse(toks, kind, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("AST (%d)\n", tree.Len())
	fmt.Print(tree)
}
