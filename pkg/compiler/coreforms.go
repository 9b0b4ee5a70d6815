package compiler

// clause is what a multi-part core form expects next. Forms whose bodies
// are blocks stay on the frame stack while the main loop parses the block,
// and resume here once it closes.
type clause uint8

const (
	clauseDone       clause = iota
	clauseSubject           // match: the value being matched
	clauseCond              // if/match: a condition or pattern before "=>", or else
	clauseArmBody           // the body after "=>"
	clauseElseBody          // the body after else
	clauseHead              // while/for: the expression before the final block
	clauseForBinding        // for: "name <-"
	clauseBody              // the final block
	clauseTryBody           // try: the block before catch
	clauseCatch             // try: "catch name"
	clauseTestName          // test: the description string
)

func isClauseFrame(k NodeKind) bool {
	switch k {
	case NodeIf, NodeMatch, NodeLoop, NodeWhile, NodeFor, NodeTry, NodeTest:
		return true
	}
	return false
}

// complete reports whether a clause frame may close in its current state.
func (f *parseFrame) complete() bool {
	return f.clause == clauseDone || (f.clause == clauseCond && f.arms > 0)
}

func (p *Parser) isBlock(j int) bool {
	k := p.toks.Kind(j)
	return k == TokCurlyBraces || k == TokLexScope
}

// coreForm dispatches a statement that the lexer mutated into a core form.
func (p *Parser) coreForm(i int) error {
	switch p.toks.Kind(i) {
	case TokFn:
		return p.openFunction(i)
	case TokReturn:
		return p.returnForm(i)
	case TokBreak, TokContinue:
		return p.breakForm(i)
	case TokStruct:
		return p.structForm(i)
	case TokIf, TokIfPr:
		return p.openClauseForm(i, NodeIf, clauseCond, 3)
	case TokMatch, TokIfEq:
		return p.openClauseForm(i, NodeMatch, clauseSubject, 4)
	case TokLoop:
		return p.openClauseForm(i, NodeLoop, clauseBody, 1)
	case TokWhile:
		return p.openClauseForm(i, NodeWhile, clauseHead, 2)
	case TokFor:
		return p.openClauseForm(i, NodeFor, clauseForBinding, 4)
	case TokTry:
		return p.openClauseForm(i, NodeTry, clauseTryBody, 4)
	case TokTest:
		if p.kind != Tests {
			return p.fail(i, errTestOutsideTestFile)
		}
		return p.openClauseForm(i, NodeTest, clauseTestName, 2)
	}
	return p.fail(i, errCoreFormUnsupported)
}

// openClauseForm emits the span node of a multi-part form and pushes its
// frame; the clauses are parsed by coreClause as the main loop reaches them.
func (p *Parser) openClauseForm(i int, kind NodeKind, first clause, minTokens int) error {
	n := p.toks.LenTokens(i)
	if n < minTokens {
		if minTokens >= 3 {
			return p.fail(i, errCoreFormTooShort)
		}
		return p.fail(i, errCoreFormShape)
	}
	idx := p.cur.buf.Append(uint8(kind), p.toks.StartByte(i), p.toks.LenBytes(i), 0, 0)
	p.credit(1)
	f := parseFrame{kind: kind, nodeIdx: idx, lenTokens: n, clause: first}
	if kind == NodeFor {
		p.scopes.push()
		f.pushedScope = true
	}
	p.cur.frames = append(p.cur.frames, f)
	p.i = i + 1
	return nil
}

// coreClause parses the next clause of the core form on top of the frame
// stack. Frame fields are updated before any call that may push frames.
func (p *Parser) coreClause() error {
	st := p.cur
	f := &st.frames[len(st.frames)-1]
	j := p.i
	end := j + f.lenTokens - f.tokensRead

	switch f.clause {
	case clauseSubject:
		f.clause = clauseCond
		return p.consumeExpression(j, p.toks.next(j), 0)

	case clauseCond:
		if p.isReserved(j, ResElse) {
			if f.arms == 0 {
				return p.fail(j, errCoreFormShape)
			}
			f.clause = clauseElseBody
			st.buf.SetPayload1(f.nodeIdx, 1)
			p.i++
			return p.advance(1)
		}
		arrow := j
		for arrow < end && !(p.toks.Kind(arrow) == TokOperator && int(p.toks.Payload1(arrow)) == opArrow) {
			arrow = p.toks.next(arrow)
		}
		if arrow == j || arrow >= end {
			return p.fail(j, errCoreFormShape)
		}
		f.clause = clauseArmBody
		if err := p.expression(j, arrow); err != nil {
			return err
		}
		p.i = arrow + 1
		return p.advance(arrow + 1 - j)

	case clauseArmBody:
		f.clause = clauseCond
		f.arms++
		return p.body(j)

	case clauseElseBody:
		f.clause = clauseDone
		return p.body(j)

	case clauseHead:
		last := j
		for q := j; q < end; q = p.toks.next(q) {
			last = q
		}
		if last == j || !p.isBlock(last) {
			return p.fail(j, errCoreFormShape)
		}
		f.clause = clauseBody
		return p.consumeExpression(j, last, 0)

	case clauseForBinding:
		if j+1 >= end || p.toks.Kind(j+1) != TokOperator || int(p.toks.Payload1(j+1)) != opBind {
			return p.fail(j, errCoreFormShape)
		}
		f.clause = clauseHead
		if err := p.bindFresh(j, false); err != nil {
			return err
		}
		p.i = j + 2
		return p.advance(2)

	case clauseBody, clauseTryBody:
		if !p.isBlock(j) {
			return p.fail(j, errCoreFormShape)
		}
		if f.clause == clauseTryBody {
			f.clause = clauseCatch
		} else {
			f.clause = clauseDone
		}
		return p.openBlock(j, p.toks.Kind(j) == TokLexScope)

	case clauseCatch:
		if !p.isReserved(j, ResCatch) || j+1 >= end {
			return p.fail(j, errCoreFormShape)
		}
		f.clause = clauseBody
		f.pushedScope = true
		p.scopes.push()
		if err := p.bindFresh(j+1, false); err != nil {
			return err
		}
		p.i = j + 2
		return p.advance(2)

	case clauseTestName:
		if p.toks.Kind(j) != TokString {
			return p.fail(j, errCoreFormShape)
		}
		f.clause = clauseBody
		p.emitLiteral(j)
		p.i = j + 1
		return p.advance(1)
	}
	return p.fail(j, errCoreFormShape)
}

// body parses an arm of if or match: a block, break or continue, or a
// single expression item.
func (p *Parser) body(j int) error {
	switch {
	case p.isBlock(j):
		return p.openBlock(j, p.toks.Kind(j) == TokLexScope)
	case p.isReserved(j, ResBreak), p.isReserved(j, ResContinue):
		if !p.insideLoop() {
			return p.fail(j, errBreakOutsideLoop)
		}
		kind := NodeBreak
		if p.isReserved(j, ResContinue) {
			kind = NodeContinue
		}
		p.cur.buf.Append(uint8(kind), p.toks.StartByte(j), p.toks.LenBytes(j), 0, 0)
		p.i = j + 1
		return p.advance(1)
	}
	return p.consumeExpression(j, p.toks.next(j), 0)
}

// insideLoop reports whether a loop of the current function is open.
// Loops of enclosing functions do not count.
func (p *Parser) insideLoop() bool {
	for _, f := range p.cur.frames {
		switch f.kind {
		case NodeLoop, NodeWhile, NodeFor:
			return true
		}
	}
	return false
}

func (p *Parser) returnForm(i int) error {
	n := p.toks.LenTokens(i)
	idx := p.cur.buf.Append(uint8(NodeReturn), p.toks.StartByte(i), p.toks.LenBytes(i), 0, 0)
	if n > 0 {
		if err := p.expression(i+1, i+1+n); err != nil {
			return err
		}
	}
	p.closeNode(idx)
	p.i = i + 1 + n
	return p.advance(1 + n)
}

func (p *Parser) breakForm(i int) error {
	if p.toks.LenTokens(i) != 0 {
		return p.fail(i, errCoreFormShape)
	}
	if !p.insideLoop() {
		return p.fail(i, errBreakOutsideLoop)
	}
	kind := NodeBreak
	if p.toks.Kind(i) == TokContinue {
		kind = NodeContinue
	}
	p.cur.buf.Append(uint8(kind), p.toks.StartByte(i), p.toks.LenBytes(i), 0, 0)
	p.i = i + 1
	return p.advance(1)
}

// structForm parses "struct Name { field Type... }", one field per line.
func (p *Parser) structForm(i int) error {
	n := p.toks.LenTokens(i)
	end := i + 1 + n
	block := i + 2
	if n < 2 || !p.isBlock(block) || p.toks.next(block) != end {
		return p.fail(i, errCoreFormShape)
	}
	typeID, err := p.declareType(i + 1)
	if err != nil {
		return err
	}
	idx := p.cur.buf.Append(uint8(NodeStruct), p.toks.StartByte(i), p.toks.LenBytes(i), typeID, 0)
	for j := block + 1; j < end; j = p.toks.next(j) {
		switch p.toks.Kind(j) {
		case TokDocComment:
		case TokStmt:
			m := p.toks.LenTokens(j)
			field := j + 1
			if m == 0 || p.toks.Kind(field) != TokWord || !isLowercaseLetter(p.toks.Name(field)[0]) {
				return p.fail(j, errCoreFormShape)
			}
			nameID := p.ast.Identifiers.Intern(p.toks.Name(field))
			p.cur.buf.Append(uint8(NodeField), p.toks.StartByte(field), p.toks.LenBytes(field), nameID, 0)
			if err := p.typeNames(field+1, field+m); err != nil {
				return err
			}
		default:
			return p.fail(j, errCoreFormShape)
		}
	}
	p.closeNode(idx)
	p.i = end
	return p.advance(1 + n)
}
