package compiler

// Precedences shared by operators and function calls. A named function in
// head position or a dot-call binds at functionPrec; prefix operators bind
// tighter than anything infix.
const (
	specialPrec  = 0
	functionPrec = 26
	prefixPrec   = 27
)

type operatorDef struct {
	name       string
	bytes      [4]byte
	precedence int
	arity      int
	extensible bool // may take a '.' and/or '=' suffix
}

// operators is sorted by first byte, then by decreasing length, so the
// first entry whose bytes all match is the longest match.
var operators = [...]operatorDef{
	{name: "!=", bytes: [4]byte{'!', '='}, precedence: 11, arity: 2},
	{name: "!", bytes: [4]byte{'!'}, precedence: prefixPrec, arity: 1},
	{name: "$", bytes: [4]byte{'$'}, precedence: prefixPrec, arity: 1},
	{name: "%", bytes: [4]byte{'%'}, precedence: 20, arity: 2, extensible: true},
	{name: "&&", bytes: [4]byte{'&', '&'}, precedence: 9, arity: 2, extensible: true},
	{name: "&", bytes: [4]byte{'&'}, precedence: 9, arity: 2},
	{name: "*", bytes: [4]byte{'*'}, precedence: 20, arity: 2, extensible: true},
	{name: "++", bytes: [4]byte{'+', '+'}, precedence: prefixPrec, arity: 1},
	{name: "+", bytes: [4]byte{'+'}, precedence: 17, arity: 2, extensible: true},
	{name: "--", bytes: [4]byte{'-', '-'}, precedence: prefixPrec, arity: 1},
	{name: "-", bytes: [4]byte{'-'}, precedence: 17, arity: 2, extensible: true},
	{name: "/", bytes: [4]byte{'/'}, precedence: 20, arity: 2, extensible: true},
	{name: "<=", bytes: [4]byte{'<', '='}, precedence: 12, arity: 2},
	{name: "<<", bytes: [4]byte{'<', '<'}, precedence: 14, arity: 2, extensible: true},
	{name: "<-", bytes: [4]byte{'<', '-'}, precedence: specialPrec},
	{name: "<", bytes: [4]byte{'<'}, precedence: 12, arity: 2},
	{name: "==", bytes: [4]byte{'=', '='}, precedence: 11, arity: 2},
	{name: "=>", bytes: [4]byte{'=', '>'}, precedence: specialPrec},
	{name: ">=<=", bytes: [4]byte{'>', '=', '<', '='}, precedence: 12, arity: 3},
	{name: ">=<", bytes: [4]byte{'>', '=', '<'}, precedence: 12, arity: 3},
	{name: "><=", bytes: [4]byte{'>', '<', '='}, precedence: 12, arity: 3},
	{name: "><", bytes: [4]byte{'>', '<'}, precedence: 12, arity: 3},
	{name: ">=", bytes: [4]byte{'>', '='}, precedence: 12, arity: 2},
	{name: ">>", bytes: [4]byte{'>', '>'}, precedence: 14, arity: 2, extensible: true},
	{name: ">", bytes: [4]byte{'>'}, precedence: 12, arity: 2},
	{name: "?", bytes: [4]byte{'?'}, precedence: prefixPrec, arity: 1},
	{name: `\`, bytes: [4]byte{'\\'}, precedence: specialPrec},
	{name: "^", bytes: [4]byte{'^'}, precedence: 21, arity: 2},
	{name: "||", bytes: [4]byte{'|', '|'}, precedence: 3, arity: 2, extensible: true},
	{name: "|", bytes: [4]byte{'|'}, precedence: 9, arity: 2},
	{name: "~", bytes: [4]byte{'~'}, precedence: prefixPrec, arity: 1},
}

// Indices the lexer and parser refer to directly.
var (
	opMinus  = operatorIndex("-")
	opArrow  = operatorIndex("=>")
	opBind   = operatorIndex("<-")
	opEquals = operatorIndex("==")
)

// accessorName is the builtin function an accessor like a[i] calls.
const accessorName = "[]"

// entrypointName is the builtin that wraps the top level of an executable.
const entrypointName = "__entrypoint"

func operatorIndex(name string) int {
	for i, op := range operators {
		if op.name == name {
			return i
		}
	}
	panic("unknown operator " + name)
}

// length returns how many bytes the operator's base form occupies.
func (op *operatorDef) length() int {
	n := 0
	for n < len(op.bytes) && op.bytes[n] != 0 {
		n++
	}
	return n
}

// matchOperator finds the longest operator starting at inp[i], returning its
// index or -1.
func matchOperator(inp []byte, i int) int {
	first := inp[i]
	k := 0
	for k < len(operators) && operators[k].bytes[0] < first {
		k++
	}
	for ; k < len(operators) && operators[k].bytes[0] == first; k++ {
		op := &operators[k]
		n := op.length()
		if i+n > len(inp) {
			continue
		}
		matched := true
		for m := 1; m < n; m++ {
			if inp[i+m] != op.bytes[m] {
				matched = false
				break
			}
		}
		if matched {
			return k
		}
	}
	return -1
}

// isOperatorStart reports whether b begins an operator handled by the
// operator lexer. '-' and '=' have their own handlers but still start
// table entries.
func isOperatorStart(b byte) bool {
	switch b {
	case '!', '$', '%', '&', '*', '+', '/', '<', '>', '?', '\\', '^', '|', '~':
		return true
	}
	return false
}

// isPrefix reports whether the operator only ever takes one operand on its right.
func (op *operatorDef) isPrefix() bool { return op.precedence == prefixPrec }

// isSpecial reports whether the operator is syntax rather than a function.
func (op *operatorDef) isSpecial() bool { return op.precedence == specialPrec }
