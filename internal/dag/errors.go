package dag

import (
	"fmt"
	"strings"
)

// GraphError reports a mutation that would have made the graph cyclic.
// It is fatal to that mutation call only; the graph is left untouched.
type GraphError struct {
	Op    string
	Cycle []string
}

func (e *GraphError) Error() string {
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("%s: would create a cycle", e.Op)
	}
	return fmt.Sprintf("%s: would create a cycle: %s", e.Op, strings.Join(e.Cycle, " -> "))
}
