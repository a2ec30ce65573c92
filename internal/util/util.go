package util

// MustString returns the result of fn or panics. Used for values the process cannot run without.
func MustString(fn func() (string, error)) string {
	s, err := fn()
	if err != nil {
		panic(err)
	}
	return s
}
