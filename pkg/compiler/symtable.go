package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FileKind classifies a compilation unit. It decides what the root of the
// AST looks like and which top-level statements are legal.
type FileKind int

const (
	Executable   FileKind = iota // top level wrapped in an entrypoint function
	Library                      // top level is a plain scope
	Tests                        // like Library, plus test blocks
	BindingsOnly                 // function and type declarations only
)

var fileKindNames = [...]string{
	Executable:   "exe",
	Library:      "lib",
	Tests:        "test",
	BindingsOnly: "bindings",
}

func (k FileKind) String() string {
	if k >= 0 && int(k) < len(fileKindNames) {
		return fileKindNames[k]
	}
	return fmt.Sprintf("FileKind(%d)", int(k))
}

// ParseFileKind is the inverse of FileKind.String.
func ParseFileKind(s string) (FileKind, error) {
	for k, name := range fileKindNames {
		if name == s {
			return FileKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown file kind %q", s)
}

// Import declares a function that is visible to a unit before any of its
// own definitions.
type Import struct {
	Name       string
	Arity      int
	Precedence int
}

// ParseImport reads the command line form name/arity[/precedence]. The
// precedence defaults to that of a named function call.
func ParseImport(s string) (Import, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return Import{}, fmt.Errorf("import %q: want name/arity[/precedence]", s)
	}
	arity, err := strconv.Atoi(parts[1])
	if err != nil || arity < 0 {
		return Import{}, fmt.Errorf("import %q: bad arity %q", s, parts[1])
	}
	imp := Import{Name: parts[0], Arity: arity, Precedence: functionPrec}
	if len(parts) == 3 {
		prec, err := strconv.Atoi(parts[2])
		if err != nil || prec <= specialPrec || prec > functionPrec {
			return Import{}, fmt.Errorf("import %q: precedence must be 1..%d", s, functionPrec)
		}
		imp.Precedence = prec
	}
	return imp, nil
}

// Function is an entry of the function table. Builtins and imports come
// first and have no body.
type Function struct {
	NameID        int32
	Arity         int
	Precedence    int
	TypeID        int32 // -1 until types are inferred
	BodyNodeIndex int   // index of the FnDef node, -1 for builtins and imports
}

// Binding is a named value introduced by an assignment, a parameter or a
// loop variable.
type Binding struct {
	NameID  int32
	Mutable bool
}

// Identifiers interns every name a unit mentions. Ids are dense and stable.
type Identifiers struct {
	names []string
	index map[string]int32
}

func NewIdentifiers() *Identifiers {
	return &Identifiers{index: make(map[string]int32)}
}

// Intern returns the id of name, adding it if it is new.
func (ids *Identifiers) Intern(name string) int32 {
	if id, ok := ids.index[name]; ok {
		return id
	}
	id := int32(len(ids.names))
	ids.names = append(ids.names, name)
	ids.index[name] = id
	return id
}

// Lookup returns the id of name without adding it.
func (ids *Identifiers) Lookup(name string) (int32, bool) {
	id, ok := ids.index[name]
	return id, ok
}

func (ids *Identifiers) Name(id int32) string {
	if id < 0 || int(id) >= len(ids.names) {
		return fmt.Sprintf("<id %d>", id)
	}
	return ids.names[id]
}

func (ids *Identifiers) Len() int { return len(ids.names) }

// lexicalScope is one level of name resolution.
type lexicalScope struct {
	bindings  map[int32]int32   // nameID -> bindingID
	functions map[int32][]int32 // nameID -> functionIDs, one per arity
	types     map[int32]int32   // nameID -> typeID
}

func newLexicalScope() *lexicalScope {
	return &lexicalScope{
		bindings:  make(map[int32]int32),
		functions: make(map[int32][]int32),
		types:     make(map[int32]int32),
	}
}

// scopeStack resolves names innermost to outermost. Scope 0 holds the
// builtins and imports.
type scopeStack struct {
	scopes []*lexicalScope
}

func (s *scopeStack) push() *lexicalScope {
	sc := newLexicalScope()
	s.scopes = append(s.scopes, sc)
	return sc
}

func (s *scopeStack) pop() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *scopeStack) top() *lexicalScope {
	return s.scopes[len(s.scopes)-1]
}

func (s *scopeStack) depth() int { return len(s.scopes) }

func (s *scopeStack) lookupBinding(nameID int32) (int32, bool) {
	for j := len(s.scopes) - 1; j >= 0; j-- {
		if id, ok := s.scopes[j].bindings[nameID]; ok {
			return id, true
		}
	}
	return -1, false
}

// lookupFunction finds the innermost function with this name and exact arity.
func (s *scopeStack) lookupFunction(nameID int32, arity int, fns []Function) (int32, bool) {
	for j := len(s.scopes) - 1; j >= 0; j-- {
		for _, id := range s.scopes[j].functions[nameID] {
			if fns[id].Arity == arity {
				return id, true
			}
		}
	}
	return -1, false
}

func (s *scopeStack) lookupType(nameID int32) (int32, bool) {
	for j := len(s.scopes) - 1; j >= 0; j-- {
		if id, ok := s.scopes[j].types[nameID]; ok {
			return id, true
		}
	}
	return -1, false
}

// String returns a deterministically ordered dump of the stack, outermost
// scope first.
func (s *scopeStack) String(ids *Identifiers, fns []Function) string {
	var sb strings.Builder
	for depth, sc := range s.scopes {
		fmt.Fprintf(&sb, "Scope %d:\n", depth)

		names := make([]string, 0, len(sc.bindings))
		for nameID := range sc.bindings {
			names = append(names, ids.Name(nameID))
		}
		sort.Strings(names)
		for _, name := range names {
			id, _ := ids.Lookup(name)
			fmt.Fprintf(&sb, "  binding %s = %d\n", name, sc.bindings[id])
		}

		names = names[:0]
		for nameID := range sc.functions {
			names = append(names, ids.Name(nameID))
		}
		sort.Strings(names)
		for _, name := range names {
			id, _ := ids.Lookup(name)
			for _, fnID := range sc.functions[id] {
				fmt.Fprintf(&sb, "  fn %s/%d = %d\n", name, fns[fnID].Arity, fnID)
			}
		}

		names = names[:0]
		for nameID := range sc.types {
			names = append(names, ids.Name(nameID))
		}
		sort.Strings(names)
		for _, name := range names {
			id, _ := ids.Lookup(name)
			fmt.Fprintf(&sb, "  type %s = %d\n", name, sc.types[id])
		}
	}
	return sb.String()
}
