package compiler

import (
	"bytes"
	"fmt"
	"strings"
)

// Parser consumes the flat token buffer produced by the Lexer and emits AST
// nodes straight into node buffers, without building a tree.
//
// Each open span is a parseFrame on the current function's frame stack.
// After every step the frames are credited with the tokens consumed, and
// each frame whose budget is used up is closed and backpatched, so one
// step can close any number of nested spans.
//
//	program    = statement*
//	statement  = docComment | stmt | assignment | typeDecl | coreForm | block
//	stmt       = expression
//	assignment = word ("=" | ":=" | op"=") expression
//	           | word "=" "fn" word* block
//	typeDecl   = Word "::" typeName*
//	block      = "{" statement* "}"
type Parser struct {
	toks      *Tokens
	kind      FileKind
	ast       *AST
	scopes    scopeStack
	states    []*fnState // functions being parsed, innermost last
	cur       *fnState
	i         int           // index of the next token
	fnByToken map[int]int32 // hoisted definitions, by statement token
	groups    []subexpr     // expression scratch, reused between expressions
}

// fnState is the scratch state of one function definition. Its nodes are
// appended to the parent's buffer when the definition closes.
type fnState struct {
	buf     *Buffer
	frames  []parseFrame
	defined []int32 // functions whose FnDef node lives in buf
	stmtTok int     // the defining statement, -1 for the root
}

type parseFrame struct {
	kind        NodeKind
	nodeIdx     int
	lenTokens   int
	tokensRead  int
	pushedScope bool
	clause      clause // what a core form expects next
	arms        int
}

// Builtins returns the functions every unit sees before its imports: the
// non-syntax operators, unary minus, the accessor and the entrypoint.
func Builtins() []Import {
	out := make([]Import, 0, len(operators)+3)
	for k := range operators {
		op := &operators[k]
		if op.isSpecial() {
			continue
		}
		out = append(out, Import{Name: op.name, Arity: op.arity, Precedence: op.precedence})
		if k == opMinus {
			out = append(out, Import{Name: op.name, Arity: 1, Precedence: prefixPrec})
		}
	}
	return append(out,
		Import{Name: accessorName, Arity: 2, Precedence: functionPrec},
		Import{Name: entrypointName, Arity: 0, Precedence: functionPrec},
	)
}

// Parse builds the AST of one unit. Builtins are seeded first, then
// imports; a repeated (name, arity) pair among them is an error.
func Parse(toks *Tokens, kind FileKind, imports []Import) (*AST, error) {
	p := newParser(toks, kind)
	if err := p.seed(imports); err != nil {
		return nil, err
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.ast, nil
}

func newParser(toks *Tokens, kind FileKind) *Parser {
	return &Parser{
		toks: toks,
		kind: kind,
		ast: &AST{
			Identifiers: NewIdentifiers(),
			Source:      toks.Source,
			FileKind:    kind,
		},
		fnByToken: make(map[int]int32),
	}
}

func (p *Parser) seed(imports []Import) error {
	base := p.scopes.push()
	builtins := Builtins()
	for k, imp := range append(builtins, imports...) {
		nameID := p.ast.Identifiers.Intern(imp.Name)
		for _, id := range base.functions[nameID] {
			if p.ast.Functions[id].Arity == imp.Arity {
				return &Error{
					Stage: StageParse,
					Msg:   errImportsNonUnique,
					// imports carry no source, so the snippet names the culprit
					Snippet: fmt.Sprintf("import #%d: %s/%d", k-len(builtins), imp.Name, imp.Arity),
				}
			}
		}
		fnID := int32(len(p.ast.Functions))
		p.ast.Functions = append(p.ast.Functions, Function{
			NameID:        nameID,
			Arity:         imp.Arity,
			Precedence:    imp.Precedence,
			TypeID:        -1,
			BodyNodeIndex: -1,
		})
		base.functions[nameID] = append(base.functions[nameID], fnID)
	}
	return nil
}

func (p *Parser) run() error {
	n := p.toks.Len()
	srcLen := len(p.toks.Source)
	root := &fnState{buf: newBuffer(n + 1), stmtTok: -1}
	p.states = append(p.states, root)
	p.cur = root
	p.scopes.push()

	rootKind := NodeScope
	var rootPayload int32
	if p.kind == Executable {
		entry, _ := p.lookupFunction(entrypointName, 0)
		p.ast.Functions[entry].BodyNodeIndex = 0
		rootKind, rootPayload = NodeFnDef, entry
	}
	root.buf.Append(uint8(rootKind), 0, srcLen, rootPayload, 0)
	root.frames = append(root.frames, parseFrame{kind: rootKind, lenTokens: n, pushedScope: true})

	if err := p.hoist(0, n); err != nil {
		return err
	}
	if err := p.closeFinished(); err != nil {
		return err
	}
	for p.i < n {
		if err := p.step(); err != nil {
			return err
		}
	}
	if len(p.states) != 1 || len(root.frames) != 0 {
		return p.failAt(srcLen, errInconsistentSpan)
	}
	p.ast.Nodes = root.buf
	return nil
}

// step processes the statement or clause starting at p.i.
func (p *Parser) step() error {
	frames := p.cur.frames
	if len(frames) == 0 {
		return p.fail(p.i, errInconsistentSpan)
	}
	if isClauseFrame(frames[len(frames)-1].kind) {
		return p.coreClause()
	}
	return p.statement()
}

func (p *Parser) fail(tok int, msg string) error {
	pos := len(p.toks.Source)
	if tok >= 0 && tok < p.toks.Len() {
		pos = p.toks.StartByte(tok)
	}
	return p.failAt(pos, msg)
}

// failAt builds a parse error with the trimmed source line holding pos.
func (p *Parser) failAt(pos int, msg string) error {
	src := p.toks.Source
	if pos > len(src) {
		pos = len(src)
	}
	lineStart := bytes.LastIndexByte(src[:pos], '\n') + 1
	lineEnd := len(src)
	if k := bytes.IndexByte(src[pos:], '\n'); k >= 0 {
		lineEnd = pos + k
	}
	return &Error{
		Stage:   StageParse,
		Offset:  pos,
		Line:    p.toks.LineOf(pos),
		Msg:     msg,
		Snippet: strings.TrimSpace(string(src[lineStart:lineEnd])),
	}
}

//
// Frames
//

// credit counts n consumed tokens against every open frame of the current
// function without closing anything.
func (p *Parser) credit(n int) {
	for k := range p.cur.frames {
		p.cur.frames[k].tokensRead += n
	}
}

func (p *Parser) advance(n int) error {
	p.credit(n)
	return p.closeFinished()
}

// closeFinished closes frames from the top while their budget is used up.
func (p *Parser) closeFinished() error {
	for {
		frames := p.cur.frames
		if len(frames) == 0 {
			return nil
		}
		f := &frames[len(frames)-1]
		if f.tokensRead < f.lenTokens {
			return nil
		}
		if f.tokensRead > f.lenTokens {
			return p.failAt(p.cur.buf.StartByte(f.nodeIdx), errInconsistentSpan)
		}
		if err := p.closeFrame(); err != nil {
			return err
		}
	}
}

func (p *Parser) closeFrame() error {
	st := p.cur
	f := st.frames[len(st.frames)-1]
	st.frames = st.frames[:len(st.frames)-1]
	if isClauseFrame(f.kind) && !f.complete() {
		return p.failAt(st.buf.StartByte(f.nodeIdx), errCoreFormShape)
	}
	p.closeNode(f.nodeIdx)
	if f.pushedScope {
		p.scopes.pop()
	}
	if len(st.frames) > 0 || st.stmtTok < 0 {
		return nil
	}
	return p.finishFunction()
}

// closeNode backpatches the node count of a span node.
func (p *Parser) closeNode(idx int) {
	p.cur.buf.SetPayload2(idx, int32(p.cur.buf.Len()-idx-1))
}

// finishFunction moves a completed definition into its parent and credits
// the parent with the whole defining statement.
func (p *Parser) finishFunction() error {
	child := p.cur
	p.states = p.states[:len(p.states)-1]
	parent := p.states[len(p.states)-1]
	offset := parent.buf.AppendAll(child.buf)
	for _, id := range child.defined {
		p.ast.Functions[id].BodyNodeIndex += offset
	}
	parent.defined = append(parent.defined, child.defined...)
	p.cur = parent
	return p.advance(1 + p.toks.LenTokens(child.stmtTok))
}

// openBlock emits a scope node for the braces at i and parses their
// statements through the main loop. A lexical scope gets its own level of
// name resolution; the body of a function shares its parameters' level.
func (p *Parser) openBlock(i int, ownScope bool) error {
	n := p.toks.LenTokens(i)
	idx := p.cur.buf.Append(uint8(NodeScope), p.toks.StartByte(i), p.toks.LenBytes(i), 0, 0)
	p.credit(1)
	p.cur.frames = append(p.cur.frames, parseFrame{kind: NodeScope, nodeIdx: idx, lenTokens: n, pushedScope: ownScope})
	if ownScope {
		p.scopes.push()
	}
	p.i = i + 1
	if err := p.hoist(i+1, i+1+n); err != nil {
		return err
	}
	return p.closeFinished()
}

//
// Statements
//

func (p *Parser) statement() error {
	i := p.i
	k := p.toks.Kind(i)
	if p.kind == BindingsOnly && p.atTopLevel() && !p.allowedInBindings(i) {
		return p.fail(i, errBindingsOnlyContents)
	}
	switch {
	case k == TokDocComment:
		p.i++
		return p.advance(1)
	case k == TokStmt:
		n := p.toks.LenTokens(i)
		if n > 0 {
			return p.consumeExpression(i+1, i+1+n, 1)
		}
		p.i++
		return p.advance(1)
	case k == TokAssignment:
		if _, ok := p.fnByToken[i]; ok {
			return p.openFunction(i)
		}
		return p.assignment(i)
	case k == TokTypeDecl:
		return p.typeDecl(i)
	case k == TokCurlyBraces || k == TokLexScope:
		return p.openBlock(i, k == TokLexScope)
	case k.IsCoreForm():
		return p.coreForm(i)
	}
	return p.fail(i, errScopeContents)
}

func (p *Parser) atTopLevel() bool {
	return len(p.states) == 1 && len(p.cur.frames) == 1
}

func (p *Parser) allowedInBindings(i int) bool {
	switch p.toks.Kind(i) {
	case TokDocComment, TokTypeDecl, TokStruct, TokFn:
		return true
	case TokAssignment:
		_, ok := p.fnByToken[i]
		return ok
	}
	return false
}

// consumeExpression parses [from, to) as one expression and credits it
// plus the lead tokens stepped over before from.
func (p *Parser) consumeExpression(from, to, lead int) error {
	if err := p.expression(from, to); err != nil {
		return err
	}
	p.i = to
	return p.advance(to - from + lead)
}

// assignment handles "x = e", "x := e" and "x op= e". A plain "=" never
// shadows; ":=" declares a mutable binding or reassigns one.
func (p *Parser) assignment(i int) error {
	end := i + 1 + p.toks.LenTokens(i)
	target := i + 1
	if p.toks.Kind(target) != TokWord || strings.Contains(p.toks.Name(target), ".") || target+1 >= end {
		return p.fail(i, errAssignmentShape)
	}
	buf := p.cur.buf
	start, length := p.toks.StartByte(i), p.toks.LenBytes(i)
	nameID := p.ast.Identifiers.Intern(p.toks.Name(target))
	existing, found := p.scopes.lookupBinding(nameID)
	code := p.toks.Payload1(i)

	var idx int
	switch {
	case code == assignImmutable || (code == assignMutable && !found):
		if found {
			return p.fail(target, errAssignmentShadowing)
		}
		id := p.declareBinding(nameID, code == assignMutable)
		idx = buf.Append(uint8(NodeAssignment), start, length, id, 0)
		buf.Append(uint8(NodeBinding), p.toks.StartByte(target), p.toks.LenBytes(target), nameID, id)
	case code == assignMutable:
		if !p.ast.Bindings[existing].Mutable {
			return p.fail(target, errAssignmentImmutable)
		}
		idx = buf.Append(uint8(NodeReassign), start, length, existing, 0)
		buf.Append(uint8(NodeIdent), p.toks.StartByte(target), p.toks.LenBytes(target), nameID, existing)
	default:
		if !found {
			return p.fail(target, errUnknownBinding)
		}
		if !p.ast.Bindings[existing].Mutable {
			return p.fail(target, errAssignmentImmutable)
		}
		opIndex, dotted := compoundOperator(code)
		name := operators[opIndex].name
		if dotted {
			name += "."
		}
		fnID, ok := p.lookupFunction(name, 2)
		if !ok {
			return p.fail(i, errUnknownFunction)
		}
		idx = buf.Append(uint8(NodeMutation), start, length, fnID, 0)
		buf.Append(uint8(NodeIdent), p.toks.StartByte(target), p.toks.LenBytes(target), nameID, existing)
	}
	if err := p.expression(target+1, end); err != nil {
		return err
	}
	p.closeNode(idx)
	p.i = end
	return p.advance(end - i)
}

func (p *Parser) typeDecl(i int) error {
	end := i + 1 + p.toks.LenTokens(i)
	typeID, err := p.declareType(i + 1)
	if err != nil {
		return err
	}
	idx := p.cur.buf.Append(uint8(NodeTypeDecl), p.toks.StartByte(i), p.toks.LenBytes(i), typeID, 0)
	if err := p.typeNames(i+2, end); err != nil {
		return err
	}
	p.closeNode(idx)
	p.i = end
	return p.advance(end - i)
}

// typeNames emits a type-name node for every word in [from, to),
// descending into parens, brackets and accessors.
func (p *Parser) typeNames(from, to int) error {
	for j := from; j < to; j++ {
		switch p.toks.Kind(j) {
		case TokWord:
			nameID := p.ast.Identifiers.Intern(p.toks.Name(j))
			typeID, _ := p.scopes.lookupType(nameID)
			p.cur.buf.Append(uint8(NodeTypeName), p.toks.StartByte(j), p.toks.LenBytes(j), nameID, typeID)
		case TokParens, TokBrackets, TokAccessor, TokDocComment:
		default:
			return p.fail(j, errUnexpectedToken)
		}
	}
	return nil
}

//
// Names
//

func (p *Parser) declareBinding(nameID int32, mutable bool) int32 {
	id := int32(len(p.ast.Bindings))
	p.ast.Bindings = append(p.ast.Bindings, Binding{NameID: nameID, Mutable: mutable})
	p.scopes.top().bindings[nameID] = id
	return id
}

// bindFresh declares the word at tok as a new binding and emits its
// declaration node. Shadowing an outer binding is an error.
func (p *Parser) bindFresh(tok int, mutable bool) error {
	name := p.toks.Name(tok)
	if p.toks.Kind(tok) != TokWord || strings.Contains(name, ".") {
		return p.fail(tok, errCoreFormShape)
	}
	nameID := p.ast.Identifiers.Intern(name)
	if _, found := p.scopes.lookupBinding(nameID); found {
		return p.fail(tok, errAssignmentShadowing)
	}
	id := p.declareBinding(nameID, mutable)
	p.cur.buf.Append(uint8(NodeBinding), p.toks.StartByte(tok), p.toks.LenBytes(tok), nameID, id)
	return nil
}

func (p *Parser) declareType(tok int) (int32, error) {
	name := p.toks.Name(tok)
	if p.toks.Kind(tok) != TokWord || !isCapitalLetter(name[0]) || strings.Contains(name, ".") {
		return -1, p.fail(tok, errTypeNameCase)
	}
	nameID := p.ast.Identifiers.Intern(name)
	scope := p.scopes.top()
	if _, dup := scope.types[nameID]; dup {
		return -1, p.fail(tok, errTypeDuplicate)
	}
	typeID := int32(len(p.ast.Types))
	p.ast.Types = append(p.ast.Types, nameID)
	scope.types[nameID] = typeID
	return typeID, nil
}

func (p *Parser) lookupFunction(name string, arity int) (int32, bool) {
	nameID, ok := p.ast.Identifiers.Lookup(name)
	if !ok {
		return -1, false
	}
	return p.scopes.lookupFunction(nameID, arity, p.ast.Functions)
}

//
// Function definitions
//

// hoist registers every function defined directly in [from, to) before any
// statement there is parsed, so siblings may call each other in any order.
func (p *Parser) hoist(from, to int) error {
	for j := from; j < to; j = p.toks.next(j) {
		if p.isFnDefinition(j) {
			if err := p.registerFunction(j); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) isFnDefinition(j int) bool {
	switch p.toks.Kind(j) {
	case TokFn:
		return true
	case TokAssignment:
		return p.toks.Payload1(j) == assignImmutable && p.toks.LenTokens(j) >= 2 &&
			p.isReserved(j+2, ResFn)
	}
	return false
}

func (p *Parser) isReserved(j int, w ReservedWord) bool {
	return j < p.toks.Len() && p.toks.Kind(j) == TokReserved && ReservedWord(p.toks.Payload1(j)) == w
}

type fnSignature struct {
	name   int
	params []int
	body   int
}

// signature validates "name = fn params {body}" or "fn name params {body}".
func (p *Parser) signature(j int) (fnSignature, error) {
	end := j + 1 + p.toks.LenTokens(j)
	sig := fnSignature{name: j + 1, body: -1}
	q := j + 2
	if p.toks.Kind(j) == TokAssignment {
		q = j + 3
	}
	if sig.name >= end || p.toks.Kind(sig.name) != TokWord || strings.Contains(p.toks.Name(sig.name), ".") {
		return sig, p.fail(j, errFnNameAndParams)
	}
	seen := map[string]bool{p.toks.Name(sig.name): true}
	for ; q < end; q = p.toks.next(q) {
		k := p.toks.Kind(q)
		switch {
		case k == TokCurlyBraces || k == TokLexScope:
			if p.toks.next(q) != end {
				return sig, p.fail(q, errFnMissingBody)
			}
			sig.body = q
		case k == TokWord && !strings.Contains(p.toks.Name(q), "."):
			name := p.toks.Name(q)
			if seen[name] {
				return sig, p.fail(q, errFnNameAndParams)
			}
			seen[name] = true
			sig.params = append(sig.params, q)
		default:
			return sig, p.fail(q, errFnNameAndParams)
		}
	}
	if sig.body < 0 {
		return sig, p.fail(j, errFnMissingBody)
	}
	return sig, nil
}

// registerFunction reserves the function table slot of the definition at j.
func (p *Parser) registerFunction(j int) error {
	sig, err := p.signature(j)
	if err != nil {
		return err
	}
	nameID := p.ast.Identifiers.Intern(p.toks.Name(sig.name))
	arity := len(sig.params)
	scope := p.scopes.top()
	for _, id := range scope.functions[nameID] {
		if p.ast.Functions[id].Arity == arity {
			return p.fail(sig.name, errFnDuplicate)
		}
	}
	fnID := int32(len(p.ast.Functions))
	p.ast.Functions = append(p.ast.Functions, Function{
		NameID:        nameID,
		Arity:         arity,
		Precedence:    functionPrec,
		TypeID:        -1,
		BodyNodeIndex: -1,
	})
	scope.functions[nameID] = append(scope.functions[nameID], fnID)
	p.fnByToken[j] = fnID
	return nil
}

// openFunction starts the scratch state of a hoisted definition and
// continues the main loop inside its body.
func (p *Parser) openFunction(j int) error {
	fnID, ok := p.fnByToken[j]
	if !ok {
		return p.fail(j, errUnexpectedToken)
	}
	sig, err := p.signature(j)
	if err != nil {
		return err
	}
	child := &fnState{
		buf:     newBuffer(p.toks.LenTokens(j) + 1),
		defined: []int32{fnID},
		stmtTok: j,
	}
	p.ast.Functions[fnID].BodyNodeIndex = 0
	child.buf.Append(uint8(NodeFnDef), p.toks.StartByte(j), p.toks.LenBytes(j), fnID, 0)
	child.frames = append(child.frames, parseFrame{kind: NodeFnDef, lenTokens: p.toks.LenTokens(j), pushedScope: true})
	p.states = append(p.states, child)
	p.cur = child
	p.scopes.push()

	for _, q := range sig.params {
		if err := p.bindFresh(q, false); err != nil {
			return err
		}
	}
	p.credit(sig.body - (j + 1))
	return p.openBlock(sig.body, false)
}
