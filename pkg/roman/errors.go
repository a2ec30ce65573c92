package roman

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange          = errors.New("number must be between 1 and 3999")
	ErrNotInteger          = errors.New("number must be an integer")
	ErrInvalidRomanNumeral = errors.New("invalid Roman numeral")

	// boundary parsing
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidFormat = errors.New("invalid number format")
)

// InvalidRomanNumeralError carries the string that failed validation.
type InvalidRomanNumeralError struct {
	Numeral string
}

func (e *InvalidRomanNumeralError) Error() string {
	return fmt.Sprintf("invalid Roman numeral: %q", e.Numeral)
}

func (e *InvalidRomanNumeralError) Is(target error) bool {
	return target == ErrInvalidRomanNumeral
}
