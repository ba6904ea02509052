package partition

import "fmt"

// InvalidPartitionError reports a partition that does not cover all live
// nodes of its graph or holds an out-of-range cluster id. Node is None when
// the violation is not tied to a single node.
type InvalidPartitionError struct {
	Node   int
	Reason string
}

func (e *InvalidPartitionError) Error() string {
	if e.Node == None {
		return fmt.Sprintf("invalid partition: %s", e.Reason)
	}
	return fmt.Sprintf("invalid partition at node %d: %s", e.Node, e.Reason)
}
