package zodgen

// orderDeclarations produces the emission order for the full declaration
// set: a depth-first topological sort with three refinements.
//
//  1. Simple aliases (whole body is `= otherName`) are excluded from
//     dependency visitation and appended at the very end; aliases can
//     forward-reference freely, and deferring them avoids spurious cycle
//     detection between mutual aliases.
//  2. A name re-encountered while still on the recursion stack is a cycle
//     member; it is skipped at that point and appended, in discovery order,
//     after the main DFS but before the alias group.
//  3. Ties preserve the input iteration order of names, so regeneration on
//     an unchanged document is byte-identical.
//
// Every input name appears in the result exactly once. This function cannot
// fail: a cycle-free input yields a plain total order, and a pathological
// all-mutual-cycle input degrades to discovery order.
func orderDeclarations(names []string, deps map[string]map[string]struct{}, isAlias func(string) bool) []string {
	position := make(map[string]int, len(names))
	for i, name := range names {
		position[name] = i
	}

	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(names))
	emitted := make(map[string]bool, len(names))
	inCycle := make(map[string]bool)

	var order []string
	var cycleDiscovery []string

	var visit func(name string)
	visit = func(name string) {
		state[name] = inStack

		// Dependencies in input order for stable ties.
		var targets []string
		for dep := range deps[name] {
			if _, known := position[dep]; !known {
				continue
			}
			if isAlias != nil && isAlias(dep) {
				continue
			}
			targets = append(targets, dep)
		}
		for i := 0; i < len(targets); i++ {
			for j := i + 1; j < len(targets); j++ {
				if position[targets[j]] < position[targets[i]] {
					targets[i], targets[j] = targets[j], targets[i]
				}
			}
		}

		for _, dep := range targets {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case inStack:
				if !inCycle[dep] {
					inCycle[dep] = true
					cycleDiscovery = append(cycleDiscovery, dep)
				}
			}
		}

		state[name] = done
		if !inCycle[name] {
			emitted[name] = true
			order = append(order, name)
		}
	}

	for _, name := range names {
		if isAlias != nil && isAlias(name) {
			continue
		}
		if state[name] == unvisited {
			visit(name)
		}
	}

	// Cycle members, in discovery order, before the alias group.
	for _, name := range cycleDiscovery {
		if !emitted[name] {
			emitted[name] = true
			order = append(order, name)
		}
	}

	// Aliases last, in input order.
	for _, name := range names {
		if isAlias != nil && isAlias(name) && !emitted[name] {
			emitted[name] = true
			order = append(order, name)
		}
	}
	return order
}
