package graph

import "fmt"

// UnsupportedGraphError is returned when a directed graph reaches a component
// that is only defined for undirected graphs.
type UnsupportedGraphError struct {
	Operation string
}

func (e *UnsupportedGraphError) Error() string {
	return fmt.Sprintf("%s: directed graphs are not supported", e.Operation)
}
