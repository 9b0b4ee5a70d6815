package compiler

import "math"

const (
	maxDecimalDigits = 40
	maxHexDigits     = 16
	maxBinDigits     = 64
	maxExactPower    = 22
)

var (
	maxIntDigits         = []byte("9223372036854775807")
	minIntDigits         = []byte("9223372036854775808")
	maximumPreciselyRepr = []byte("9007199254740992") // 2**53
)

// exactPowersOfTen holds the powers of ten a float64 represents exactly.
var exactPowersOfTen = [maxExactPower + 1]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10,
	1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20,
	1e21, 1e22,
}

func (lx *Lexer) lexNumberPositive() error {
	return lx.lexNumber(false)
}

// lexNumber lexes a decimal, hex (0x) or binary (0b) literal. For a negative
// literal lx.i points at the '-'.
func (lx *Lexer) lexNumber(negative bool) error {
	start := lx.i
	lx.wrapInStatement(start)
	j := start
	if negative {
		j++
	}
	var err error
	switch {
	case j+1 < len(lx.inp) && lx.inp[j] == '0' && lx.inp[j+1] == 'x':
		err = lx.radixNumber(start, j+2, 4, maxHexDigits, negative)
	case j+1 < len(lx.inp) && lx.inp[j] == '0' && lx.inp[j+1] == 'b':
		err = lx.radixNumber(start, j+2, 1, maxBinDigits, negative)
	default:
		err = lx.decNumber(start, j, negative)
	}
	if err != nil {
		return err
	}
	if lx.i < len(lx.inp) && isAlphanumeric(lx.inp[lx.i]) {
		return lx.failAt(lx.i, errNumericMalformed)
	}
	lx.lastEnd = lx.i
	return nil
}

func hexValue(b byte) (uint64, bool) {
	switch {
	case isDigit(b):
		return uint64(b - '0'), true
	case b >= 'a' && b <= 'f':
		return uint64(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return uint64(b-'A') + 10, true
	}
	return 0, false
}

// radixNumber lexes the digits of a hex (bitsPerDigit 4) or binary
// (bitsPerDigit 1) literal. The bits are taken as-is, so 0xFFFFFFFFFFFFFFFF
// is -1.
func (lx *Lexer) radixNumber(start, j, bitsPerDigit, maxDigits int, negative bool) error {
	base := uint64(1) << bitsPerDigit
	isValid := func(b byte) bool {
		d, ok := hexValue(b)
		return ok && d < base
	}
	var v uint64
	n := 0
	for j < len(lx.inp) {
		b := lx.inp[j]
		if b == '_' {
			if j+1 >= len(lx.inp) || !isValid(lx.inp[j+1]) {
				return lx.failAt(j, errNumericEndUnderscore)
			}
			j++
			continue
		}
		if !isValid(b) {
			break
		}
		if n == maxDigits {
			return lx.failAt(j, errNumericBinWidthExceeded)
		}
		d, _ := hexValue(b)
		v = v<<bitsPerDigit | d
		n++
		j++
	}
	if n == 0 {
		return lx.failAt(start, errNumericEmpty)
	}
	lx.i = j
	result := int64(v)
	if negative {
		result = -result
	}
	return lx.addInt(start, result)
}

// decNumber lexes a decimal literal into lx.numeric, then converts it to
// an int or a float depending on whether a decimal point was met.
func (lx *Lexer) decNumber(start, j int, negative bool) error {
	lx.numeric = lx.numeric[:0]
	dotPos := -1 // count of digits before the decimal point
loop:
	for ; j < len(lx.inp); j++ {
		b := lx.inp[j]
		switch {
		case isDigit(b):
			if b == '0' && len(lx.numeric) == 0 && dotPos < 0 {
				continue
			}
			if len(lx.numeric) == maxDecimalDigits {
				return lx.failAt(j, errNumericWidthExceeded)
			}
			lx.numeric = append(lx.numeric, b)
		case b == '_':
			if j+1 >= len(lx.inp) || !isDigit(lx.inp[j+1]) {
				return lx.failAt(j, errNumericEndUnderscore)
			}
		case b == '.':
			if j+1 >= len(lx.inp) || !isDigit(lx.inp[j+1]) {
				break loop
			}
			if dotPos >= 0 {
				return lx.failAt(j, errNumericMultipleDots)
			}
			dotPos = len(lx.numeric)
		default:
			break loop
		}
	}
	lx.i = j
	if dotPos < 0 {
		v, err := lx.calcInteger(start, negative)
		if err != nil {
			return err
		}
		return lx.addInt(start, v)
	}
	v, err := lx.calcFloating(start, dotPos, negative)
	if err != nil {
		return err
	}
	hi, lo := splitInt64(int64(math.Float64bits(v)))
	return lx.add(TokFloat, start, lx.i-start, hi, lo)
}

func (lx *Lexer) addInt(start int, v int64) error {
	hi, lo := splitInt64(v)
	return lx.add(TokInt, start, lx.i-start, hi, lo)
}

// calcInteger converts lx.numeric, which holds no leading zeros, checking it
// against the int64 range.
func (lx *Lexer) calcInteger(start int, negative bool) (int64, error) {
	limit := maxIntDigits
	if negative {
		limit = minIntDigits
	}
	if len(lx.numeric) > len(limit) ||
		(len(lx.numeric) == len(limit) && string(lx.numeric) > string(limit)) {
		return 0, lx.failAt(start, errNumericIntWidthExceeded)
	}
	var v uint64
	for _, d := range lx.numeric {
		v = v*10 + uint64(d-'0')
	}
	if negative {
		return -int64(v), nil
	}
	return int64(v), nil
}

// calcFloating converts lx.numeric with a decimal point after dotPos
// digits. Only values whose significand fits in 53 bits and whose power of
// ten is exactly representable are accepted, so the conversion is exact.
func (lx *Lexer) calcFloating(start, dotPos int, negative bool) (float64, error) {
	digits := lx.numeric
	power := dotPos - len(digits)
	for len(digits) > 0 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
		power++
	}
	for len(digits) > 0 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		if negative {
			return math.Copysign(0, -1), nil
		}
		return 0, nil
	}
	if len(digits) > len(maximumPreciselyRepr) ||
		(len(digits) == len(maximumPreciselyRepr) && string(digits) > string(maximumPreciselyRepr)) ||
		power > maxExactPower || power < -maxExactPower {
		return 0, lx.failAt(start, errNumericFloatWidthExceeded)
	}
	var significand int64
	for _, d := range digits {
		significand = significand*10 + int64(d-'0')
	}
	v := float64(significand)
	if power >= 0 {
		v *= exactPowersOfTen[power]
	} else {
		v /= exactPowersOfTen[-power]
	}
	if negative {
		v = -v
	}
	return v, nil
}
