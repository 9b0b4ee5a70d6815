package compiler

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// NodeKind identifies an AST node.
type NodeKind uint8

const (
	NodeInt      NodeKind = iota // payload: high/low halves of an int64
	NodeFloat                    // payload: high/low halves of the IEEE-754 bits
	NodeBool                     // payload2: 1 or 0
	NodeString                   // start/len point at the literal's bytes
	NodeIdent                    // payload1: nameID, payload2: bindingID
	NodeCall                     // payload1: functionID, payload2: arity
	NodeBinding                  // declaration; payload1: nameID, payload2: bindingID
	NodeTypeName                 // payload1: nameID, payload2: typeID or -1
	NodeField                    // struct field; payload1: nameID
	NodeBreak
	NodeContinue

	// Spans. payload2 holds the number of nodes inside, written on close.
	NodeScope
	NodeExpression
	NodeAssignment // payload1: bindingID; first child is the NodeBinding
	NodeReassign   // payload1: bindingID; first child is the NodeIdent
	NodeMutation   // payload1: operator functionID; first child is the NodeIdent
	NodeFnDef      // payload1: functionID
	NodeReturn
	NodeIf    // payload1: 1 if there is an else clause
	NodeMatch // payload1: 1 if there is an else clause
	NodeLoop
	NodeWhile
	NodeFor
	NodeTry
	NodeStruct   // payload1: typeID
	NodeTypeDecl // payload1: typeID
	NodeTest
)

const firstSpanNode = NodeScope

var nodeNames = [...]string{
	NodeInt:        "int",
	NodeFloat:      "float",
	NodeBool:       "bool",
	NodeString:     "string",
	NodeIdent:      "ident",
	NodeCall:       "call",
	NodeBinding:    "binding",
	NodeTypeName:   "typeName",
	NodeField:      "field",
	NodeBreak:      "break",
	NodeContinue:   "continue",
	NodeScope:      "scope",
	NodeExpression: "expr",
	NodeAssignment: "assignment",
	NodeReassign:   "reassign",
	NodeMutation:   "mutation",
	NodeFnDef:      "fnDef",
	NodeReturn:     "return",
	NodeIf:         "if",
	NodeMatch:      "match",
	NodeLoop:       "loop",
	NodeWhile:      "while",
	NodeFor:        "for",
	NodeTry:        "try",
	NodeStruct:     "struct",
	NodeTypeDecl:   "typeDecl",
	NodeTest:       "test",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeNames) && nodeNames[k] != "" {
		return nodeNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// IsSpan reports whether nodes of this kind enclose other nodes.
func (k NodeKind) IsSpan() bool { return k >= firstSpanNode }

// AST is the finished output of the parser. Function bodies are laid out
// inline: a NodeFnDef span sits where its definition appeared, and the
// function table records where each one starts.
type AST struct {
	Nodes       *Buffer
	Identifiers *Identifiers
	Functions   []Function
	Bindings    []Binding
	Types       []int32 // nameID of every declared type
	Source      []byte
	FileKind    FileKind
}

func (a *AST) Len() int { return a.Nodes.Len() }

func (a *AST) Kind(i int) NodeKind { return NodeKind(a.Nodes.Kind(i)) }

func (a *AST) StartByte(i int) int { return a.Nodes.StartByte(i) }

func (a *AST) LenBytes(i int) int { return a.Nodes.LenBytes(i) }

func (a *AST) Payload1(i int) int32 { return a.Nodes.Payload1(i) }

func (a *AST) Payload2(i int) int32 { return a.Nodes.Payload2(i) }

// LenNodes returns how many nodes a span node encloses.
func (a *AST) LenNodes(i int) int {
	if !a.Kind(i).IsSpan() {
		return 0
	}
	return int(a.Nodes.Payload2(i))
}

func (a *AST) Int(i int) int64 { return a.Nodes.Int64(i) }

func (a *AST) Float(i int) float64 { return math.Float64frombits(uint64(a.Nodes.Int64(i))) }

// Text returns the source bytes a node was built from.
func (a *AST) Text(i int) string {
	start := a.StartByte(i)
	return string(a.Source[start : start+a.LenBytes(i)])
}

// FunctionName returns "name/arity" for an entry of the function table.
func (a *AST) FunctionName(fnID int32) string {
	fn := a.Functions[fnID]
	return fmt.Sprintf("%s/%d", a.Identifiers.Name(fn.NameID), fn.Arity)
}

// Dump writes the node buffer, one line per node, indented by nesting
// depth, followed by the user-defined functions.
func (a *AST) Dump(w io.Writer) error {
	var ends []int // end index of every open span
	for i := 0; i < a.Len(); i++ {
		for len(ends) > 0 && ends[len(ends)-1] <= i {
			ends = ends[:len(ends)-1]
		}
		indent := strings.Repeat("  ", len(ends))
		if _, err := fmt.Fprintf(w, "%s%d: %s\n", indent, i, a.describe(i)); err != nil {
			return err
		}
		if a.Kind(i).IsSpan() {
			ends = append(ends, i+1+a.LenNodes(i))
		}
	}
	for id, fn := range a.Functions {
		if fn.BodyNodeIndex < 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "fn %d %s body=%d\n", id, a.FunctionName(int32(id)), fn.BodyNodeIndex); err != nil {
			return err
		}
	}
	return nil
}

func (a *AST) describe(i int) string {
	k := a.Kind(i)
	head := fmt.Sprintf("%s [%d; %d]", k, a.StartByte(i), a.LenBytes(i))
	switch k {
	case NodeInt:
		return fmt.Sprintf("%s %d", head, a.Int(i))
	case NodeFloat:
		return fmt.Sprintf("%s %g", head, a.Float(i))
	case NodeBool:
		return fmt.Sprintf("%s %t", head, a.Payload2(i) == 1)
	case NodeString:
		return fmt.Sprintf("%s %q", head, a.Text(i))
	case NodeIdent, NodeBinding:
		return fmt.Sprintf("%s %s #%d", head, a.Identifiers.Name(a.Payload1(i)), a.Payload2(i))
	case NodeCall:
		return fmt.Sprintf("%s %s", head, a.FunctionName(a.Payload1(i)))
	case NodeTypeName, NodeField:
		return fmt.Sprintf("%s %s", head, a.Identifiers.Name(a.Payload1(i)))
	case NodeFnDef, NodeMutation:
		return fmt.Sprintf("%s %s (%d)", head, a.FunctionName(a.Payload1(i)), a.LenNodes(i))
	}
	if k.IsSpan() {
		return fmt.Sprintf("%s (%d)", head, a.LenNodes(i))
	}
	return head
}

func (a *AST) String() string {
	var sb strings.Builder
	_ = a.Dump(&sb)
	return sb.String()
}
