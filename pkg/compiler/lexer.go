package compiler

// frame is an entry of the lexer's backtrack stack: a span whose opening
// token is already in the buffer but whose length is not known yet.
type frame struct {
	kind       TokenKind
	tokenIndex int
	wasColon   bool // opened by ':', closes implicitly at a statement boundary
}

// Lexer holds all mutable state for a single scanning pass over the source.
type Lexer struct {
	inp       []byte
	i         int // index of the next byte to consume
	buf       *Buffer
	backtrack []frame
	newlines  []int
	lastEnd   int    // byte just past the last token or closing punctuation
	numeric   []byte // digits of the numeric literal being lexed
}

type lexFunc func(lx *Lexer) error

// dispatch maps every byte value to the handler for a token starting with it.
var dispatch [256]lexFunc

func init() {
	for b := 0; b < 128; b++ {
		dispatch[b] = (*Lexer).lexUnrecognized
	}
	for b := 128; b < 256; b++ {
		dispatch[b] = (*Lexer).lexNonASCII
	}
	for b := '0'; b <= '9'; b++ {
		dispatch[b] = (*Lexer).lexNumberPositive
	}
	for b := 'a'; b <= 'z'; b++ {
		dispatch[b] = (*Lexer).lexWord
	}
	for b := 'A'; b <= 'Z'; b++ {
		dispatch[b] = (*Lexer).lexWord
	}
	for b := 0; b < 128; b++ {
		if isOperatorStart(byte(b)) {
			dispatch[b] = (*Lexer).lexOperator
		}
	}
	dispatch['_'] = (*Lexer).lexWord
	dispatch['.'] = (*Lexer).lexDot
	dispatch['@'] = (*Lexer).lexAt
	dispatch['-'] = (*Lexer).lexMinus
	dispatch['='] = (*Lexer).lexEqual
	dispatch[':'] = (*Lexer).lexColon
	dispatch['('] = (*Lexer).lexParenLeft
	dispatch[')'] = (*Lexer).lexParenRight
	dispatch['['] = (*Lexer).lexBracketLeft
	dispatch[']'] = (*Lexer).lexBracketRight
	dispatch['{'] = (*Lexer).lexCurlyLeft
	dispatch['}'] = (*Lexer).lexCurlyRight
	dispatch[' '] = (*Lexer).lexSpace
	dispatch['\t'] = (*Lexer).lexSpace
	dispatch['\r'] = (*Lexer).lexSpace
	dispatch['\n'] = (*Lexer).lexNewline
	dispatch[';'] = (*Lexer).lexStatementTerminator
	dispatch['\''] = (*Lexer).lexStringLiteral
	dispatch['"'] = (*Lexer).lexVerbatimString
	dispatch['#'] = (*Lexer).lexComment
}

func newLexer(src []byte) *Lexer {
	return &Lexer{
		inp:       src,
		buf:       newBuffer(len(src)/4 + 1),
		backtrack: make([]frame, 0, 16),
		numeric:   make([]byte, 0, 40),
	}
}

// Lex turns source bytes into a flat token stream. Lexing stops at the
// first error; no partial output is returned.
func Lex(src []byte) (*Tokens, error) {
	lx := newLexer(src)
	if err := lx.run(); err != nil {
		return nil, err
	}
	return &Tokens{buf: lx.buf, Source: src, Newlines: lx.newlines}, nil
}

func (lx *Lexer) run() error {
	if len(lx.inp) == 0 {
		return lx.fail(errEmptyInput)
	}
	if len(lx.inp) >= 3 && lx.inp[0] == 0xEF && lx.inp[1] == 0xBB && lx.inp[2] == 0xBF {
		lx.i = 3
	}
	for lx.i < len(lx.inp) {
		if err := dispatch[lx.inp[lx.i]](lx); err != nil {
			return err
		}
	}
	return lx.finalize()
}

// finalize closes what may legally stay open at the end of input: colon
// scopes and the last statement. Anything else is an unclosed opener.
func (lx *Lexer) finalize() error {
	if err := lx.closeColons(); err != nil {
		return err
	}
	if err := lx.closeStatement(); err != nil {
		return err
	}
	if len(lx.backtrack) > 0 {
		top := lx.backtrack[len(lx.backtrack)-1]
		return lx.failAt(lx.buf.StartByte(top.tokenIndex), errPunctuationExtraOpening)
	}
	return nil
}

func (lx *Lexer) fail(msg string) error {
	return lx.failAt(lx.i, msg)
}

func (lx *Lexer) failAt(pos int, msg string) error {
	return &Error{Stage: StageLex, Offset: pos, Line: lineOf(lx.newlines, pos), Msg: msg}
}

//
// Token and span bookkeeping
//

func (lx *Lexer) add(kind TokenKind, startByte, lenBytes int, payload1, payload2 int32) error {
	if lenBytes > maxRecordLen {
		return lx.failAt(startByte, errLengthOverflow)
	}
	lx.buf.Append(uint8(kind), startByte, lenBytes, payload1, payload2)
	return nil
}

func (lx *Lexer) top() *frame {
	if len(lx.backtrack) == 0 {
		return nil
	}
	return &lx.backtrack[len(lx.backtrack)-1]
}

// openSpan appends a span token with a placeholder length and pushes its frame.
func (lx *Lexer) openSpan(kind TokenKind, startByte int, wasColon bool) {
	idx := lx.buf.Append(uint8(kind), startByte, 0, 0, 0)
	lx.backtrack = append(lx.backtrack, frame{kind: kind, tokenIndex: idx, wasColon: wasColon})
}

// closeSpan backpatches the opener at idx. This is the only write of its
// length fields.
func (lx *Lexer) closeSpan(idx, endByte int) error {
	lenBytes := endByte - lx.buf.StartByte(idx)
	if lenBytes > maxRecordLen {
		return lx.failAt(lx.buf.StartByte(idx), errLengthOverflow)
	}
	if lenBytes < 0 {
		lenBytes = 0
	}
	lx.buf.SetLenBytes(idx, lenBytes)
	lx.buf.SetPayload2(idx, int32(lx.buf.Len()-idx-1))
	return nil
}

func (lx *Lexer) pop() frame {
	f := lx.backtrack[len(lx.backtrack)-1]
	lx.backtrack = lx.backtrack[:len(lx.backtrack)-1]
	return f
}

// isScopeFrame reports whether statements are opened directly inside f.
func isScopeFrame(f *frame) bool {
	return f == nil || f.kind == TokCurlyBraces || f.kind == TokLexScope
}

// wrapInStatement makes sure a regular token is never un-scoped: at the top
// level or directly inside braces, an implicit statement is opened first.
func (lx *Lexer) wrapInStatement(startByte int) {
	if isScopeFrame(lx.top()) {
		lx.openSpan(TokStmt, startByte, false)
	}
}

// closeColons closes every colon scope at the top of the stack, retyping
// nothing since they were opened as parens.
func (lx *Lexer) closeColons() error {
	for len(lx.backtrack) > 0 && lx.top().wasColon {
		f := lx.pop()
		if err := lx.closeSpan(f.tokenIndex, lx.lastEnd); err != nil {
			return err
		}
	}
	return nil
}

// closeStatement closes the top frame if it is a statement of any kind.
func (lx *Lexer) closeStatement() error {
	if f := lx.top(); f != nil && f.kind.IsStatement() {
		lx.pop()
		return lx.closeSpan(f.tokenIndex, lx.lastEnd)
	}
	return nil
}

// statementBoundary handles a newline or ';'. Colon scopes close with their
// statement, but a line break inside parens or brackets ends nothing.
func (lx *Lexer) statementBoundary() error {
	j := len(lx.backtrack) - 1
	for j >= 0 && lx.backtrack[j].wasColon {
		j--
	}
	if j < 0 || !lx.backtrack[j].kind.IsStatement() {
		return nil
	}
	if err := lx.closeColons(); err != nil {
		return err
	}
	return lx.closeStatement()
}

// convertGrandparentToScope retypes the braces enclosing the current
// statement into a lexical scope, the only span kind whose function
// definitions get hoisted by the parser.
func (lx *Lexer) convertGrandparentToScope() {
	if len(lx.backtrack) < 2 {
		return
	}
	gp := &lx.backtrack[len(lx.backtrack)-2]
	if gp.kind == TokCurlyBraces {
		gp.kind = TokLexScope
		lx.buf.SetKind(gp.tokenIndex, uint8(TokLexScope))
	}
}

//
// Words
//

func (lx *Lexer) lexWord() error {
	return lx.wordInternal(TokWord, lx.i)
}

// lexDot lexes a dot-word like ".foo", the infix dot-call.
func (lx *Lexer) lexDot() error {
	if lx.i+1 < len(lx.inp) && isWordStart(lx.inp[lx.i+1]) {
		lx.i++ // .
		return lx.wordInternal(TokDotWord, lx.i-1)
	}
	return lx.fail(errUnrecognizedByte)
}

func (lx *Lexer) lexAt() error {
	if lx.i+1 < len(lx.inp) && isWordStart(lx.inp[lx.i+1]) {
		lx.i++ // @
		return lx.wordInternal(TokAtWord, lx.i-1)
	}
	return lx.fail(errUnrecognizedByte)
}

// wordInternal lexes a word (reserved or identifier).
// Accepted: A.B.c.d, asdf123, ab._cd45
// Rejected: A.b.C.d, 1asdf23, ab.cd_45
func (lx *Lexer) wordInternal(kind TokenKind, realStart int) error {
	start := lx.i
	metUncapitalized, err := lx.wordChunk(false)
	if err != nil {
		return err
	}
	for lx.i+1 < len(lx.inp) && lx.inp[lx.i] == '.' && isWordStart(lx.inp[lx.i+1]) {
		lx.i++ // .
		uncapitalized, err := lx.wordChunk(metUncapitalized)
		if err != nil {
			return err
		}
		metUncapitalized = metUncapitalized || uncapitalized
	}
	lenBytes := lx.i - start
	def := lookupReserved(lx.inp, start, lenBytes)
	followedByBracket := lx.i < len(lx.inp) && lx.inp[lx.i] == '['

	if def != nil {
		if kind != TokWord {
			return lx.failAt(realStart, errWordReservedWithDot)
		}
		if followedByBracket {
			return lx.failAt(start, errReservedCalled)
		}
		return lx.reservedWord(def, start, lenBytes)
	}

	lx.wrapInStatement(realStart)
	if err := lx.add(kind, realStart, lx.i-realStart, 0, 0); err != nil {
		return err
	}
	lx.lastEnd = lx.i
	if followedByBracket && kind == TokWord {
		lx.openSpan(TokAccessor, lx.i+1, false)
		lx.i++ // [
	}
	return nil
}

// wordChunk lexes the characters between two dots and reports whether the
// chunk was uncapitalized.
func (lx *Lexer) wordChunk(metUncapitalized bool) (bool, error) {
	if lx.inp[lx.i] == '_' {
		if lx.i+1 >= len(lx.inp) {
			return false, lx.fail(errPrematureEndOfInput)
		}
		lx.i++ // _
	}
	b := lx.inp[lx.i]
	uncapitalized := false
	switch {
	case isLowercaseLetter(b):
		uncapitalized = true
	case isCapitalLetter(b):
	default:
		return false, lx.fail(errWordChunkStart)
	}
	if metUncapitalized && !uncapitalized {
		return false, lx.fail(errWordCapitalizationOrder)
	}
	lx.i++
	for lx.i < len(lx.inp) && isAlphanumeric(lx.inp[lx.i]) {
		lx.i++
	}
	if lx.i < len(lx.inp) && lx.inp[lx.i] == '_' {
		return false, lx.fail(errWordUnderscoresOnlyAtStart)
	}
	return uncapitalized, nil
}

// reservedWord emits a bool literal, mutates a fresh statement into a core
// form, or, when the word does not lead its statement, emits a plain
// reserved-word token.
func (lx *Lexer) reservedWord(def *reservedDef, start, lenBytes int) error {
	lx.lastEnd = start + lenBytes
	switch {
	case def.word == ResTrue || def.word == ResFalse:
		lx.wrapInStatement(start)
		var v int32
		if def.word == ResTrue {
			v = 1
		}
		return lx.add(TokBool, start, lenBytes, 0, v)
	case def.coreForm != 0 && isScopeFrame(lx.top()):
		lx.openSpan(def.coreForm, start, false)
		if def.coreForm == TokReturn || def.coreForm == TokFn {
			lx.convertGrandparentToScope()
		}
		return nil
	default:
		lx.wrapInStatement(start)
		return lx.add(TokReserved, start, lenBytes, int32(def.word), 0)
	}
}

//
// Operators and assignments
//

func (lx *Lexer) lexOperator() error {
	lx.wrapInStatement(lx.i)
	k := matchOperator(lx.inp, lx.i)
	if k < 0 {
		return lx.fail(errOperatorUnknown)
	}
	op := &operators[k]
	j := lx.i + op.length()
	var dotted int32
	if op.extensible && j < len(lx.inp) && lx.inp[j] == '.' {
		dotted = 1
		j++
	}
	if op.extensible && j < len(lx.inp) && lx.inp[j] == '=' {
		if err := lx.processAssignment(assignCompound + int32(k)*2 + dotted); err != nil {
			return err
		}
		lx.i = j + 1
		return nil
	}
	if err := lx.add(TokOperator, lx.i, j-lx.i, int32(k), dotted); err != nil {
		return err
	}
	lx.i = j
	lx.lastEnd = j
	return nil
}

// compoundOperator decodes the payload of a compound assignment.
func compoundOperator(code int32) (opIndex int, dotted bool) {
	c := code - assignCompound
	return int(c / 2), c%2 == 1
}

// processAssignment mutates the current statement into an assignment. Only
// a plain, non-empty statement may be mutated, and only once.
func (lx *Lexer) processAssignment(code int32) error {
	f := lx.top()
	switch {
	case f == nil:
		return lx.fail(errOperatorAssignmentPunct)
	case f.kind == TokAssignment || f.kind == TokTypeDecl:
		return lx.fail(errOperatorMultipleAssignment)
	case f.kind.IsCoreForm():
		return lx.fail(errCoreFormAssignment)
	case f.kind != TokStmt || f.wasColon:
		return lx.fail(errOperatorAssignmentPunct)
	case lx.buf.Len()-1 == f.tokenIndex:
		return lx.fail(errOperatorAssignmentPunct)
	}
	f.kind = TokAssignment
	lx.buf.SetKind(f.tokenIndex, uint8(TokAssignment))
	lx.buf.SetPayload1(f.tokenIndex, code)
	lx.convertGrandparentToScope()
	return nil
}

// processTypeDecl mutates "Name :: ..." into a type declaration.
func (lx *Lexer) processTypeDecl() error {
	f := lx.top()
	switch {
	case f == nil:
		return lx.fail(errOperatorTypeDeclPunct)
	case f.kind == TokAssignment || f.kind == TokTypeDecl:
		return lx.fail(errOperatorMultipleAssignment)
	case f.kind.IsCoreForm():
		return lx.fail(errCoreFormAssignment)
	case f.kind != TokStmt || f.wasColon || lx.buf.Len()-1 != f.tokenIndex+1:
		return lx.fail(errOperatorTypeDeclPunct)
	}
	f.kind = TokTypeDecl
	lx.buf.SetKind(f.tokenIndex, uint8(TokTypeDecl))
	lx.convertGrandparentToScope()
	return nil
}

// lexEqual handles "==" and "=>" through the operator table, and a bare "="
// as an immutable assignment.
func (lx *Lexer) lexEqual() error {
	if lx.i+1 < len(lx.inp) && (lx.inp[lx.i+1] == '=' || lx.inp[lx.i+1] == '>') {
		return lx.lexOperator()
	}
	if err := lx.processAssignment(assignImmutable); err != nil {
		return err
	}
	lx.i++ // =
	return nil
}

// lexMinus produces a negative literal when a digit follows directly, and
// otherwise one of the minus operators.
func (lx *Lexer) lexMinus() error {
	if lx.i+1 < len(lx.inp) && isDigit(lx.inp[lx.i+1]) {
		return lx.lexNumber(true)
	}
	return lx.lexOperator()
}

// lexColon handles ":=", "::" and the colon scope, which acts as parens
// running to the end of the enclosing statement or parens.
func (lx *Lexer) lexColon() error {
	if lx.i+1 < len(lx.inp) {
		switch lx.inp[lx.i+1] {
		case '=':
			if err := lx.processAssignment(assignMutable); err != nil {
				return err
			}
			lx.i += 2
			return nil
		case ':':
			if err := lx.processTypeDecl(); err != nil {
				return err
			}
			lx.i += 2
			return nil
		}
	}
	lx.wrapInStatement(lx.i)
	lx.openSpan(TokParens, lx.i+1, true)
	lx.i++
	return nil
}

//
// Punctuation
//

func (lx *Lexer) lexParenLeft() error {
	lx.wrapInStatement(lx.i)
	lx.openSpan(TokParens, lx.i+1, false)
	lx.i++
	return nil
}

func (lx *Lexer) lexBracketLeft() error {
	lx.wrapInStatement(lx.i)
	lx.openSpan(TokBrackets, lx.i+1, false)
	lx.i++
	return nil
}

func (lx *Lexer) lexCurlyLeft() error {
	lx.openSpan(TokCurlyBraces, lx.i+1, false)
	lx.i++
	return nil
}

func (lx *Lexer) lexParenRight() error {
	return lx.closeRegularPunctuation(func(k TokenKind) bool { return k == TokParens })
}

func (lx *Lexer) lexBracketRight() error {
	return lx.closeRegularPunctuation(func(k TokenKind) bool { return k == TokBrackets || k == TokAccessor })
}

func (lx *Lexer) lexCurlyRight() error {
	if err := lx.closeColons(); err != nil {
		return err
	}
	if err := lx.closeStatement(); err != nil {
		return err
	}
	return lx.closeRegularPunctuation(func(k TokenKind) bool { return k == TokCurlyBraces || k == TokLexScope })
}

// closeRegularPunctuation validates the closer at lx.i against the top of
// the stack and backpatches the opener.
func (lx *Lexer) closeRegularPunctuation(matches func(TokenKind) bool) error {
	if err := lx.closeColons(); err != nil {
		return err
	}
	f := lx.top()
	if f == nil {
		return lx.fail(errPunctuationExtraClosing)
	}
	if !matches(f.kind) {
		return lx.fail(errPunctuationUnmatched)
	}
	lx.pop()
	if err := lx.closeSpan(f.tokenIndex, lx.i); err != nil {
		return err
	}
	lx.i++
	lx.lastEnd = lx.i
	return nil
}

func (lx *Lexer) lexSpace() error {
	lx.i++
	return nil
}

func (lx *Lexer) lexNewline() error {
	lx.newlines = append(lx.newlines, lx.i)
	if err := lx.statementBoundary(); err != nil {
		return err
	}
	lx.i++
	return nil
}

func (lx *Lexer) lexStatementTerminator() error {
	if err := lx.statementBoundary(); err != nil {
		return err
	}
	lx.i++
	return nil
}

//
// Strings and comments
//

// lexStringLiteral lexes 'text', where \' does not end the literal.
func (lx *Lexer) lexStringLiteral() error {
	j := lx.i + 1
	for ; j < len(lx.inp); j++ {
		b := lx.inp[j]
		if b == '\\' && j+1 < len(lx.inp) && lx.inp[j+1] == '\'' {
			j++
		} else if b == '\'' {
			break
		} else if b == '\n' {
			lx.newlines = append(lx.newlines, j)
		}
	}
	return lx.addString(j)
}

// lexVerbatimString lexes "text" with no escapes at all.
func (lx *Lexer) lexVerbatimString() error {
	j := lx.i + 1
	for ; j < len(lx.inp) && lx.inp[j] != '"'; j++ {
		if lx.inp[j] == '\n' {
			lx.newlines = append(lx.newlines, j)
		}
	}
	return lx.addString(j)
}

func (lx *Lexer) addString(closingQuote int) error {
	if closingQuote >= len(lx.inp) {
		return lx.fail(errStringUnterminated)
	}
	lx.wrapInStatement(lx.i)
	if err := lx.add(TokString, lx.i+1, closingQuote-lx.i-1, 0, 0); err != nil {
		return err
	}
	lx.i = closingQuote + 1
	lx.lastEnd = lx.i
	return nil
}

// lexComment discards a line comment, or keeps a "##" doc comment as a
// token. Consecutive doc comment lines merge into one token.
func (lx *Lexer) lexComment() error {
	start := lx.i
	j := start + 1
	for j < len(lx.inp) && lx.inp[j] != '\n' {
		j++
	}
	if start+1 >= len(lx.inp) || lx.inp[start+1] != '#' {
		lx.i = j
		return nil
	}
	defer func() { lx.i = j }()
	if last := lx.buf.Len() - 1; last >= 0 && TokenKind(lx.buf.Kind(last)) == TokDocComment {
		prevStart := lx.buf.StartByte(last)
		if onlyOneLineBreak(lx.inp[prevStart+lx.buf.LenBytes(last) : start]) {
			if j-prevStart > maxRecordLen {
				return lx.failAt(prevStart, errLengthOverflow)
			}
			lx.buf.SetLenBytes(last, j-prevStart)
			return nil
		}
	}
	if err := lx.statementBoundary(); err != nil {
		return err
	}
	return lx.add(TokDocComment, start, j-start, 0, 0)
}

func onlyOneLineBreak(gap []byte) bool {
	breaks := 0
	for _, b := range gap {
		switch b {
		case '\n':
			breaks++
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return breaks == 1
}

func (lx *Lexer) lexUnrecognized() error {
	return lx.fail(errUnrecognizedByte)
}

func (lx *Lexer) lexNonASCII() error {
	return lx.fail(errNonASCII)
}

//
// Byte classes
//

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isLowercaseLetter(b byte) bool { return b >= 'a' && b <= 'z' }

func isCapitalLetter(b byte) bool { return b >= 'A' && b <= 'Z' }

func isLetter(b byte) bool { return isLowercaseLetter(b) || isCapitalLetter(b) }

func isAlphanumeric(b byte) bool { return isLetter(b) || isDigit(b) }

func isWordStart(b byte) bool { return isLetter(b) || b == '_' }
