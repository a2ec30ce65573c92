// Package roman converts between Arabic integers and canonical Roman numerals.
//
// Only values in the closed range [MinValue, MaxValue] are representable. Every
// function in this package is pure and safe for concurrent use.
package roman

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinValue = 1
	MaxValue = 3999

	// MaxLength is the length of the longest canonical numeral (3888, MMMDCCCLXXXVIII).
	MaxLength = 15
)

type symbol struct {
	value   int
	numeral string
}

// symbols is walked in order by ToRoman; it must stay strictly descending.
var symbols = [...]symbol{
	{1000, "M"},
	{900, "CM"},
	{500, "D"},
	{400, "CD"},
	{100, "C"},
	{90, "XC"},
	{50, "L"},
	{40, "XL"},
	{10, "X"},
	{9, "IX"},
	{5, "V"},
	{4, "IV"},
	{1, "I"},
}

var (
	validChars           = regexp.MustCompile(`^[IVXLCDM]+$`)
	invalidRepetitions   = regexp.MustCompile(`I{4,}|X{4,}|C{4,}|M{4,}|V{2,}|L{2,}|D{2,}`)
	invalidSubtractions  = regexp.MustCompile(`IL|IC|ID|IM|XD|XM|VX|VL|VC|VD|VM|LC|LD|LM|DM`)
	plainDecimal         = regexp.MustCompile(`^[+-]?[0-9]+\.[0-9]+$`)
	errNonCanonicalInput = errors.New("non-canonical form")
)

// ToRoman returns the canonical Roman numeral for n.
func ToRoman(n int) (string, error) {
	if n < MinValue || n > MaxValue {
		return "", fmt.Errorf("converting %d: %w", n, ErrOutOfRange)
	}

	var b strings.Builder
	b.Grow(MaxLength)
	remaining := n
	for _, s := range symbols {
		for remaining >= s.value {
			b.WriteString(s.numeral)
			remaining -= s.value
		}
	}
	return b.String(), nil
}

// FromFloat converts a numeric value that may carry a fractional part. Fractional
// values are rejected with ErrNotInteger, never rounded or truncated.
func FromFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", fmt.Errorf("converting %v: %w", f, ErrNotInteger)
	}
	if f < MinValue || f > MaxValue {
		return "", fmt.Errorf("converting %v: %w", f, ErrOutOfRange)
	}
	return ToRoman(int(f))
}

// IsValidRomanNumeral reports whether s passes the character set, repetition and
// subtraction adjacency checks. It does not compute a value.
func IsValidRomanNumeral(s string) bool {
	if !validChars.MatchString(s) {
		return false
	}
	if invalidRepetitions.MatchString(s) {
		return false
	}
	return !invalidSubtractions.MatchString(s)
}

// FromRoman returns the integer value of a canonical Roman numeral.
func FromRoman(s string) (int, error) {
	if !IsValidRomanNumeral(s) {
		return 0, &InvalidRomanNumeralError{Numeral: s}
	}

	result := 0
	previous := 0
	for i := len(s) - 1; i >= 0; i-- {
		current := valueOf(s[i])
		if current >= previous {
			result += current
		} else {
			result -= current
		}
		previous = current
	}

	// The syntactic checks admit a few non-canonical spellings such as "IIV".
	if canonical, err := ToRoman(result); err != nil || canonical != s {
		return 0, fmt.Errorf("%w: %w", &InvalidRomanNumeralError{Numeral: s}, errNonCanonicalInput)
	}
	return result, nil
}

// ParseArabic parses a request-supplied decimal integer and checks its range.
func ParseArabic(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingInput
	}

	n, err := strconv.Atoi(raw)
	if err == nil {
		if n < MinValue || n > MaxValue {
			return 0, fmt.Errorf("parsing %q: %w", raw, ErrOutOfRange)
		}
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("parsing %q: %w", raw, ErrOutOfRange)
	}

	// Plain decimals such as "42.0" are whole numbers and convert; exponent forms
	// such as "1e3" stay a format error unless they carry a fraction.
	f, ferr := strconv.ParseFloat(raw, 64)
	if ferr == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && (plainDecimal.MatchString(raw) || f != math.Trunc(f)) {
		if _, err := FromFloat(f); err != nil {
			return 0, fmt.Errorf("parsing %q: %w", raw, err)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("parsing %q: %w", raw, ErrInvalidFormat)
}

func valueOf(c byte) int {
	switch c {
	case 'I':
		return 1
	case 'V':
		return 5
	case 'X':
		return 10
	case 'L':
		return 50
	case 'C':
		return 100
	case 'D':
		return 500
	case 'M':
		return 1000
	}
	return 0
}
