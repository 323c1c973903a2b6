// Package kernel implements the Node & Model Kernel: a concrete Node that
// owns an ordered list of resident Models and advances them once per epoch
// in dependency order.
package kernel

// KahnToposort computes a dependency-respecting execution order over
// classNames, given a "must run after" edge set (before[c] lists the class
// names that must execute before c). Ties are broken by declaration order:
// at each step, the earliest-declared class with no remaining unresolved
// dependency is chosen next, keeping the sort stable and deterministic.
// Returns the remaining unresolved class names
// as the detected cycle when no further progress can be made.
func KahnToposort(classNames []string, before map[string][]string) (order []string, cycle []string) {
	indegree := make(map[string]int, len(classNames))
	unblocks := make(map[string][]string, len(classNames))
	for _, c := range classNames {
		indegree[c] = 0
	}
	for c, deps := range before {
		if _, known := indegree[c]; !known {
			continue
		}
		for _, d := range deps {
			if _, known := indegree[d]; !known {
				continue // dependency outside this node's model set
			}
			unblocks[d] = append(unblocks[d], c)
			indegree[c]++
		}
	}

	visited := make(map[string]bool, len(classNames))
	for len(order) < len(classNames) {
		progressed := false
		for _, c := range classNames {
			if visited[c] || indegree[c] != 0 {
				continue
			}
			visited[c] = true
			order = append(order, c)
			for _, next := range unblocks[c] {
				indegree[next]--
			}
			progressed = true
			break
		}
		if !progressed {
			for _, c := range classNames {
				if !visited[c] {
					cycle = append(cycle, c)
				}
			}
			return nil, cycle
		}
	}
	return order, nil
}
