package centrality

import "fmt"

// NumericInstabilityError reports an iteration that hit a near-zero
// normalisation length or did not converge within its iteration cap.
type NumericInstabilityError struct {
	Operation  string
	Iterations int
	Reason     string
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("%s: numeric instability after %d iterations: %s", e.Operation, e.Iterations, e.Reason)
}
