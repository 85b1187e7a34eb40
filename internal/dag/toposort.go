package dag

// toposort runs Kahn's algorithm over the given adjacency. nodeIDs fixes the
// universe; edges maps node → its dependencies. Returns the sorted order, or
// nil and a cycle path when the graph is not a DAG.
func toposort(nodeIDs []string, edges map[string][]string) ([]string, []string) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	nodeSet := make(map[string]bool, len(nodeIDs))
	for _, n := range nodeIDs {
		nodeSet[n] = true
	}

	inDegree := make(map[string]int, len(nodeIDs))
	forward := make(map[string][]string)
	for _, n := range nodeIDs {
		inDegree[n] = 0
	}
	for node, deps := range edges {
		for _, dep := range deps {
			if !nodeSet[dep] || !nodeSet[node] {
				continue // unknown refs resolve elsewhere
			}
			inDegree[node]++
			forward[dep] = append(forward[dep], node)
		}
	}

	var queue []string
	for _, n := range nodeIDs {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var sorted []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, dependent := range forward[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) == len(nodeIDs) {
		return sorted, nil
	}
	return nil, findCyclePath(nodeIDs, edges)
}

// findCyclePath finds one cycle among nodes via DFS and returns it in
// forward order, closing on the entry node.
func findCyclePath(nodeIDs []string, edges map[string][]string) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // in current path
		black = 2 // finished
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var cyclePath []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		color[node] = gray
		for _, dep := range edges[node] {
			if color[dep] == gray {
				cyclePath = []string{dep}
				current := node
				for current != dep {
					cyclePath = append(cyclePath, current)
					current = parent[current]
				}
				cyclePath = append(cyclePath, dep)
				for i, j := 0, len(cyclePath)-1; i < j; i, j = i+1, j-1 {
					cyclePath[i], cyclePath[j] = cyclePath[j], cyclePath[i]
				}
				return true
			}
			if color[dep] == white {
				parent[dep] = node
				if dfs(dep) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for _, n := range nodeIDs {
		if color[n] == white {
			if dfs(n) {
				return cyclePath
			}
		}
	}
	return nil
}
