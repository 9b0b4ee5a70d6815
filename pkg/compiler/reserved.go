package compiler

import "fmt"

// ReservedWord identifies one of the language's reserved words.
type ReservedWord int32

const (
	ResAlias ReservedWord = iota
	ResAwait
	ResBreak
	ResCatch
	ResContinue
	ResElse
	ResEmbed
	ResExport
	ResFalse
	ResFn
	ResFor
	ResIf
	ResIfEq
	ResIfPr
	ResImpl
	ResInterface
	ResLoop
	ResMatch
	ResMut
	ResReturn
	ResStruct
	ResTest
	ResTrue
	ResTry
	ResType
	ResWhile
	ResYield
)

type reservedDef struct {
	text string
	word ReservedWord
	// coreForm is the statement kind the word mutates its statement into
	// when it leads the statement. Zero for words that never do.
	coreForm TokenKind
}

var reservedWords = [...]reservedDef{
	{"alias", ResAlias, TokAlias},
	{"await", ResAwait, TokAwait},
	{"break", ResBreak, TokBreak},
	{"catch", ResCatch, 0},
	{"continue", ResContinue, TokContinue},
	{"else", ResElse, 0},
	{"embed", ResEmbed, TokEmbed},
	{"export", ResExport, TokExport},
	{"false", ResFalse, 0},
	{"fn", ResFn, TokFn},
	{"for", ResFor, TokFor},
	{"if", ResIf, TokIf},
	{"ifEq", ResIfEq, TokIfEq},
	{"ifPr", ResIfPr, TokIfPr},
	{"impl", ResImpl, TokImpl},
	{"interface", ResInterface, TokInterface},
	{"loop", ResLoop, TokLoop},
	{"match", ResMatch, TokMatch},
	{"mut", ResMut, TokMut},
	{"return", ResReturn, TokReturn},
	{"struct", ResStruct, TokStruct},
	{"test", ResTest, TokTest},
	{"true", ResTrue, 0},
	{"try", ResTry, TokTry},
	{"type", ResType, TokType},
	{"while", ResWhile, TokWhile},
	{"yield", ResYield, TokYield},
}

// reservedByLetter holds, per lowercase first letter, the reserved words
// starting with it. Filled once at init and read-only afterwards.
var reservedByLetter [26][]*reservedDef

func init() {
	for i := range reservedWords {
		def := &reservedWords[i]
		if def.word != ReservedWord(i) {
			panic(fmt.Sprintf("reserved word table out of order at %q", def.text))
		}
		letter := def.text[0] - 'a'
		reservedByLetter[letter] = append(reservedByLetter[letter], def)
	}
}

func (w ReservedWord) String() string {
	if w >= 0 && int(w) < len(reservedWords) {
		return reservedWords[w].text
	}
	return fmt.Sprintf("ReservedWord(%d)", int32(w))
}

// lookupReserved checks the word inp[start:start+n] against the reserved
// words sharing its first letter.
func lookupReserved(inp []byte, start, n int) *reservedDef {
	first := inp[start]
	if first < 'a' || first > 'z' {
		return nil
	}
	for _, def := range reservedByLetter[first-'a'] {
		if len(def.text) == n && string(inp[start:start+n]) == def.text {
			return def
		}
	}
	return nil
}
