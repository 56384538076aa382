package minimizer

import "fmt"

// ParamError reports an invalid (k, m) pair: spec.md §7's "m > k" or
// "m <= 0" parameter class.
type ParamError struct {
	K, M int
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("minimizer: invalid parameters k=%d m=%d (require 0 < m <= k)", e.K, e.M)
}
