package compiler

import "math"

// pendingCall is an operator or named function whose call node has not been
// emitted yet because its operands are still being collected.
type pendingCall struct {
	name       string // "" for the placeholder of a group without a function yet
	precedence int
	arity      int
	maxArity   int // 0 for any number
	startByte  int
}

func (c *pendingCall) isPrefix() bool { return c.precedence == prefixPrec }

// subexpr is an open parenthesized group of an expression. calls is its
// operator stack; calls[0] starts out as a placeholder that either gets the
// head function's name or is replaced by the group's first infix call.
type subexpr struct {
	calls         []pendingCall
	end           int  // token index just past the group
	first         int  // token index of the group's first token
	head          bool // the first word names the function of the group
	replaced      bool // the placeholder was taken over by an infix call
	expectOperand bool
}

// expression flattens the tokens [start, end) into post-order nodes: all
// operands of a call precede its call node. A lone item is emitted bare;
// anything longer is wrapped in an expression span.
//
// This is Dijkstra's shunting yard extended with prefix calls, head
// functions of any arity and infix dot-calls:
//
//	foo 1 2      =>  1 2 foo/2
//	1 + 2 * 3    =>  1 2 3 */2 +/2
//	!!x          =>  x !/1 !/1
//	a .bar b c   =>  a b c bar/3
func (p *Parser) expression(start, end int) error {
	if end-start == 1 && !p.toks.Kind(start).IsSpan() {
		return p.singleItem(start)
	}
	buf := p.cur.buf
	startByte := p.toks.StartByte(start)
	if p.toks.Kind(start).IsSpan() {
		startByte-- // opening punctuation
	}
	idx := buf.Append(uint8(NodeExpression), startByte, p.itemsEnd(start, end)-startByte, 0, 0)

	p.groups = p.groups[:0]
	p.openGroup(start, end)
	for j := start; j < end; {
		var err error
		if j, err = p.exprToken(j); err != nil {
			return err
		}
		if err := p.closeGroups(j); err != nil {
			return err
		}
	}
	if len(p.groups) != 0 {
		return p.fail(start, errExpressionCannotParse)
	}
	p.closeNode(idx)
	return nil
}

// itemsEnd returns the byte offset just past the items in [from, to).
func (p *Parser) itemsEnd(from, to int) int {
	last := from
	for j := from; j < to; j = p.toks.next(j) {
		last = j
	}
	end := p.toks.StartByte(last) + p.toks.LenBytes(last)
	switch p.toks.Kind(last) {
	case TokParens, TokBrackets, TokAccessor, TokCurlyBraces, TokLexScope:
		end++ // closing punctuation
	}
	if end > len(p.toks.Source) {
		end = len(p.toks.Source)
	}
	return end
}

func (p *Parser) singleItem(j int) error {
	switch k := p.toks.Kind(j); {
	case k <= TokString:
		p.emitLiteral(j)
		return nil
	case k == TokWord:
		return p.wordOperand(j)
	case k.IsStatement():
		return p.fail(j, errExpressionInnerScope)
	}
	return p.fail(j, errUnexpectedToken)
}

// openGroup pushes the group whose tokens are [j, end). The group is in
// head mode when it starts with a word that is not followed by an infix
// operator, a dot-call or an accessor.
func (p *Parser) openGroup(j, end int) {
	g := subexpr{
		calls:         []pendingCall{{startByte: p.toks.StartByte(j)}},
		end:           end,
		first:         j,
		expectOperand: true,
	}
	if end-j >= 2 && p.toks.Kind(j) == TokWord {
		switch p.toks.Kind(j + 1) {
		case TokDotWord, TokAccessor:
		case TokOperator:
			g.head = operators[p.toks.Payload1(j+1)].isPrefix()
		default:
			g.head = true
		}
	}
	p.groups = append(p.groups, g)
}

// exprToken processes the token at j within the innermost group and
// returns the index of the next unprocessed token.
func (p *Parser) exprToken(j int) (int, error) {
	g := &p.groups[len(p.groups)-1]
	switch k := p.toks.Kind(j); k {
	case TokInt, TokFloat, TokBool, TokString:
		p.emitLiteral(j)
		return j + 1, p.operand(g)
	case TokWord:
		if g.head && j == g.first {
			g.calls[0] = pendingCall{
				name:       p.toks.Name(j),
				precedence: functionPrec,
				startByte:  p.toks.StartByte(j),
			}
			return j + 1, nil
		}
		if j+1 < g.end && p.toks.Kind(j+1) == TokAccessor {
			return p.accessor(j)
		}
		if err := p.wordOperand(j); err != nil {
			return j, err
		}
		return j + 1, p.operand(g)
	case TokDotWord:
		return j + 1, p.infix(g, p.toks.Name(j), functionPrec, 0, p.toks.StartByte(j))
	case TokOperator:
		return p.operator(j)
	case TokParens:
		n := p.toks.LenTokens(j)
		if n == 0 {
			return j, p.fail(j, errExpressionCannotParse)
		}
		if err := p.incrementArity(g); err != nil {
			return j, err
		}
		g.expectOperand = false
		p.openGroup(j+1, j+1+n)
		return j + 1, nil
	case TokDocComment:
		return j + 1, nil
	}
	if p.toks.Kind(j).IsStatement() || p.toks.Kind(j) == TokCurlyBraces || p.toks.Kind(j) == TokLexScope {
		return j, p.fail(j, errExpressionInnerScope)
	}
	return j, p.fail(j, errUnexpectedToken)
}

func (p *Parser) emitLiteral(j int) {
	var kind NodeKind
	switch p.toks.Kind(j) {
	case TokInt:
		kind = NodeInt
	case TokFloat:
		kind = NodeFloat
	case TokBool:
		kind = NodeBool
	default:
		kind = NodeString
	}
	p.cur.buf.Append(uint8(kind), p.toks.StartByte(j), p.toks.LenBytes(j), p.toks.Payload1(j), p.toks.Payload2(j))
}

// emitNegated folds "- 5" into a single literal node.
func (p *Parser) emitNegated(minus, lit int) {
	start := p.toks.StartByte(minus)
	length := p.toks.StartByte(lit) + p.toks.LenBytes(lit) - start
	if p.toks.Kind(lit) == TokInt {
		hi, lo := splitInt64(-p.toks.Int(lit))
		p.cur.buf.Append(uint8(NodeInt), start, length, hi, lo)
		return
	}
	hi, lo := splitInt64(int64(math.Float64bits(-p.toks.Float(lit))))
	p.cur.buf.Append(uint8(NodeFloat), start, length, hi, lo)
}

// wordOperand resolves a word used as a value: a binding, or else a
// zero-arity function which is called right away.
func (p *Parser) wordOperand(j int) error {
	if nameID, ok := p.ast.Identifiers.Lookup(p.toks.Name(j)); ok {
		if id, found := p.scopes.lookupBinding(nameID); found {
			p.cur.buf.Append(uint8(NodeIdent), p.toks.StartByte(j), p.toks.LenBytes(j), nameID, id)
			return nil
		}
		if fnID, found := p.scopes.lookupFunction(nameID, 0, p.ast.Functions); found {
			p.cur.buf.Append(uint8(NodeCall), p.toks.StartByte(j), p.toks.LenBytes(j), fnID, 0)
			return nil
		}
	}
	return p.fail(j, errUnknownBinding)
}

// accessor flattens "a[i]" into a, i, then a call of the accessor builtin.
// The accessor gets a group of its own so that operators inside the
// brackets cannot pop it.
func (p *Parser) accessor(j int) (int, error) {
	g := &p.groups[len(p.groups)-1]
	acc := j + 1
	n := p.toks.LenTokens(acc)
	if n == 0 {
		return j, p.fail(acc, errExpressionCannotParse)
	}
	if err := p.wordOperand(j); err != nil {
		return j, err
	}
	if err := p.incrementArity(g); err != nil {
		return j, err
	}
	g.expectOperand = false
	p.groups = append(p.groups, subexpr{
		calls: []pendingCall{{
			name:       accessorName,
			precedence: functionPrec,
			arity:      2,
			maxArity:   2,
			startByte:  p.toks.StartByte(acc) - 1,
		}},
		end:      acc + 1 + n,
		first:    acc + 1,
		replaced: true,
	})
	p.openGroup(acc+1, acc+1+n)
	return acc + 1, nil
}

func (p *Parser) operator(j int) (int, error) {
	g := &p.groups[len(p.groups)-1]
	k := int(p.toks.Payload1(j))
	op := &operators[k]
	dotted := p.toks.Payload2(j) == 1
	start := p.toks.StartByte(j)
	if op.isSpecial() {
		return j, p.fail(j, errOperatorMisplaced)
	}
	name := op.name
	if dotted {
		name += "."
	}
	if k == opMinus && !dotted && (g.expectOperand || g.head) {
		if j+1 < g.end && (p.toks.Kind(j+1) == TokInt || p.toks.Kind(j+1) == TokFloat) {
			p.emitNegated(j, j+1)
			return j + 2, p.operand(g)
		}
		g.calls = append(g.calls, pendingCall{name: name, precedence: prefixPrec, maxArity: 1, startByte: start})
		return j + 1, nil
	}
	if op.isPrefix() {
		g.calls = append(g.calls, pendingCall{name: name, precedence: prefixPrec, maxArity: 1, startByte: start})
		return j + 1, nil
	}
	return j + 1, p.infix(g, name, op.precedence, op.arity, start)
}

// infix handles a binary (or ternary) operator or a dot-call. The first
// one in a group inherits the operands already counted by the placeholder;
// later ones pop every pending call that binds at least as tightly.
func (p *Parser) infix(g *subexpr, name string, precedence, maxArity, startByte int) error {
	if g.head {
		return p.failAt(startByte, errExpressionCannotParse)
	}
	if !g.replaced {
		if top := g.calls[len(g.calls)-1]; top.isPrefix() {
			return p.failAt(top.startByte, errOperatorMisplaced)
		}
		g.calls[0] = pendingCall{
			name:       name,
			precedence: precedence,
			arity:      g.calls[0].arity,
			maxArity:   maxArity,
			startByte:  startByte,
		}
		g.replaced = true
		g.expectOperand = true
		return nil
	}
	for len(g.calls) > 0 && g.calls[len(g.calls)-1].precedence >= precedence {
		c := g.calls[len(g.calls)-1]
		if c.isPrefix() {
			return p.failAt(c.startByte, errOperatorMisplaced)
		}
		if err := p.emitCall(c); err != nil {
			return err
		}
		g.calls = g.calls[:len(g.calls)-1]
	}
	g.calls = append(g.calls, pendingCall{
		name:       name,
		precedence: precedence,
		arity:      1,
		maxArity:   maxArity,
		startByte:  startByte,
	})
	g.expectOperand = true
	return nil
}

// operand records that an operand node was just emitted: the prefix calls
// waiting for it are emitted first, then the nearest other call gains one
// argument.
func (p *Parser) operand(g *subexpr) error {
	if err := p.flushPrefix(g); err != nil {
		return err
	}
	g.expectOperand = false
	return p.incrementArity(g)
}

func (p *Parser) flushPrefix(g *subexpr) error {
	for len(g.calls) > 0 && g.calls[len(g.calls)-1].isPrefix() {
		c := g.calls[len(g.calls)-1]
		c.arity = 1
		if err := p.emitCall(c); err != nil {
			return err
		}
		g.calls = g.calls[:len(g.calls)-1]
	}
	return nil
}

// incrementArity skips prefix calls, whose arity is always one.
func (p *Parser) incrementArity(g *subexpr) error {
	n := len(g.calls) - 1
	for n >= 0 && g.calls[n].isPrefix() {
		n--
	}
	if n < 0 {
		return p.fail(g.first, errExpressionCannotParse)
	}
	c := &g.calls[n]
	c.arity++
	if c.maxArity > 0 && c.arity > c.maxArity {
		return p.failAt(c.startByte, errOperatorWrongArity)
	}
	return nil
}

// closeGroups pops every group that ends at token j, emitting its pending
// calls innermost first. A closed group was an operand of its parent, so
// the parent's prefix calls are emitted right after it.
func (p *Parser) closeGroups(j int) error {
	for len(p.groups) > 0 {
		g := &p.groups[len(p.groups)-1]
		if g.end != j {
			return nil
		}
		for c := len(g.calls) - 1; c >= 0; c-- {
			if err := p.emitCall(g.calls[c]); err != nil {
				return err
			}
		}
		p.groups = p.groups[:len(p.groups)-1]
		if len(p.groups) > 0 {
			parent := &p.groups[len(p.groups)-1]
			if err := p.flushPrefix(parent); err != nil {
				return err
			}
			parent.expectOperand = false
		}
	}
	return nil
}

// emitCall resolves a saturated call by name and arity, innermost scope
// first, and emits its node.
func (p *Parser) emitCall(c pendingCall) error {
	if c.name == "" {
		if c.arity == 1 {
			return nil
		}
		return p.failAt(c.startByte, errExpressionCannotParse)
	}
	if (c.isPrefix() && c.arity == 0) || (c.maxArity > 0 && c.arity != c.maxArity) {
		return p.failAt(c.startByte, errOperatorWrongArity)
	}
	fnID, ok := p.lookupFunction(c.name, c.arity)
	if !ok {
		return p.failAt(c.startByte, errUnknownFunction)
	}
	p.cur.buf.Append(uint8(NodeCall), c.startByte, len(c.name), fnID, int32(c.arity))
	return nil
}
