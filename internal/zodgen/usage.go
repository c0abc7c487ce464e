package zodgen

import (
	"sort"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

// Usage classifies where a named schema appears in the spec's operations.
type Usage int

const (
	UsageUnclassified Usage = iota
	UsageRequest
	UsageResponse
	UsageBoth
)

func (u Usage) String() string {
	switch u {
	case UsageRequest:
		return "request"
	case UsageResponse:
		return "response"
	case UsageBoth:
		return "both"
	default:
		return "unclassified"
	}
}

// analyzeUsage walks every included operation, classifying each named schema
// as request-only, response-only, or both, with transitive closure over
// nested references. Schemas participating in a reference cycle are always
// forced to UsageBoth: a schema that can reach itself must round-trip safely
// regardless of single-direction usage.
//
// This analyzer never fails; it degrades to UsageUnclassified.
func analyzeUsage(doc *spec.Document, filter FilterConfig, warn func(format string, args ...any)) (map[string]Usage, map[string]bool) {
	requestSet := make(map[string]bool)
	responseSet := make(map[string]bool)

	included := 0
	for _, op := range doc.Operations {
		if !ShouldIncludeOperation(op, filter) {
			continue
		}
		included++
		for _, p := range op.Parameters {
			collectRefs(p.Schema, requestSet)
		}
		for _, m := range op.RequestBody {
			collectRefs(m.Schema, requestSet)
		}
		for _, m := range op.Responses {
			collectRefs(m.Schema, responseSet)
		}
	}
	if len(doc.Operations) > 0 && included == 0 && warn != nil {
		warn("operation filter matched no operations; schema usage falls back to heuristics")
	}

	expandClosure(doc, requestSet)
	expandClosure(doc, responseSet)

	usage := make(map[string]Usage)
	if len(requestSet) == 0 && len(responseSet) == 0 {
		classifyByAccessMarkers(doc, usage)
	} else {
		for name := range requestSet {
			if responseSet[name] {
				usage[name] = UsageBoth
			} else {
				usage[name] = UsageRequest
			}
		}
		for name := range responseSet {
			if !requestSet[name] {
				usage[name] = UsageResponse
			}
		}
	}

	cycles := detectCycles(doc)
	for name := range cycles {
		usage[name] = UsageBoth
	}
	return usage, cycles
}

// collectRefs adds every schema name referenced from n (at any depth through
// inline properties, items, and composition branches) to set.
func collectRefs(n *spec.SchemaNode, set map[string]bool) {
	if n == nil {
		return
	}
	if n.Kind == spec.KindRef {
		set[n.Ref] = true
		return
	}
	collectRefs(n.Items, set)
	for _, p := range n.Properties {
		collectRefs(p.Schema, set)
	}
	for _, b := range n.Branches {
		collectRefs(b, set)
	}
}

// expandClosure grows set to its transitive closure over the component
// schema reference graph.
func expandClosure(doc *spec.Document, set map[string]bool) {
	queue := make([]string, 0, len(set))
	for name := range set {
		queue = append(queue, name)
	}
	sort.Strings(queue)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		node := doc.Schema(name)
		if node == nil {
			continue
		}
		found := make(map[string]bool)
		collectRefs(node, found)
		next := make([]string, 0, len(found))
		for ref := range found {
			if !set[ref] {
				set[ref] = true
				next = append(next, ref)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}
}

// classifyByAccessMarkers is the no-paths fallback: write-only properties
// mark a schema request-only, read-only properties mark it response-only,
// and schemas with neither or both markers stay unclassified.
func classifyByAccessMarkers(doc *spec.Document, usage map[string]Usage) {
	for _, name := range doc.SchemaNames {
		node := doc.Schemas[name]
		readOnly, writeOnly := hasAccessMarkers(node)
		switch {
		case writeOnly && !readOnly:
			usage[name] = UsageRequest
		case readOnly && !writeOnly:
			usage[name] = UsageResponse
		}
	}
}

func hasAccessMarkers(n *spec.SchemaNode) (readOnly, writeOnly bool) {
	if n == nil {
		return false, false
	}
	for _, p := range n.Properties {
		if p.Schema != nil {
			if p.Schema.ReadOnly {
				readOnly = true
			}
			if p.Schema.WriteOnly {
				writeOnly = true
			}
		}
	}
	return readOnly, writeOnly
}

// detectCycles runs a DFS with a recursion stack over the component schema
// reference graph and returns every schema name that is part of a cycle,
// self-references included.
func detectCycles(doc *spec.Document) map[string]bool {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(doc.SchemaNames))
	cycles := make(map[string]bool)
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		node := doc.Schema(name)
		if node == nil {
			return
		}
		state[name] = inStack
		stack = append(stack, name)

		refs := make(map[string]bool)
		collectRefs(node, refs)
		ordered := make([]string, 0, len(refs))
		for r := range refs {
			ordered = append(ordered, r)
		}
		sort.Strings(ordered)

		for _, ref := range ordered {
			switch state[ref] {
			case unvisited:
				visit(ref)
			case inStack:
				// Everything from ref to the stack top closes the cycle.
				for i := len(stack) - 1; i >= 0; i-- {
					cycles[stack[i]] = true
					if stack[i] == ref {
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, name := range doc.SchemaNames {
		if state[name] == unvisited {
			visit(name)
		}
	}
	return cycles
}
