package compiler

import (
	"context"
	"fmt"
	"testing"
)

// simpleSource is a minimal program used for benchmarking the fast path.
const simpleSource = `
add = fn a b { a + b }
x = add 3 4
x
`

// complexSource is a larger program exercising structs, loops, recursion,
// match arms and mutable bindings.
const complexSource = `
## Point on a grid.
struct Point {
  x Int
  y Int
}

absVal = fn n {
  if n < 0 => { return 0 - n }
  return n
}

sumTo = fn limit {
  total := 0
  i := 0
  while i < limit {
    total += i
    i += 1
  }
  return total
}

fib = fn n {
  if n < 2 => { return n }
  return (fib (n - 1)) + (fib (n - 2))
}

classify = fn n {
  match n 0 => 'zero' 1 => 'one' else 'many'
}

s = sumTo 8
f = fib 8
a = absVal -42
c := 0
loop {
  c += 1
  if c > 10 => break
}
try { s .absVal } catch e { e }
s + f + a
`

func TestBenchmarkSourcesCompile(t *testing.T) {
	for _, src := range []string{simpleSource, complexSource} {
		if _, _, err := Compile([]byte(src), Executable, nil); err != nil {
			t.Fatal(err)
		}
	}
}

// --- Lex benchmarks ---

func BenchmarkLex_Simple(b *testing.B) {
	src := []byte(simpleSource)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Lex(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLex_Complex(b *testing.B) {
	src := []byte(complexSource)
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if _, err := Lex(src); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Parse benchmarks ---
// Tokens are pre-computed outside the timed region.

func BenchmarkParse_Simple(b *testing.B) {
	toks, err := Lex([]byte(simpleSource))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(toks, Executable, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse_Complex(b *testing.B) {
	toks, err := Lex([]byte(complexSource))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(toks, Executable, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Batch benchmarks ---

func BenchmarkCompileAll(b *testing.B) {
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			units := make([]Unit, 32)
			for i := range units {
				units[i] = Unit{Name: fmt.Sprintf("u%d.tl", i), Source: []byte(complexSource), Kind: Executable}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := CompileAll(context.Background(), units, nil, WithWorkers(workers)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
