package zodgen

import (
	"testing"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

func refNode(name string) *spec.SchemaNode {
	return &spec.SchemaNode{Kind: spec.KindRef, Ref: name}
}

func objectNode(props map[string]*spec.SchemaNode, required ...string) *spec.SchemaNode {
	n := &spec.SchemaNode{Kind: spec.KindObject}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	// Stable property order for assertions.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	for _, k := range keys {
		n.Properties = append(n.Properties, spec.Property{Name: k, Schema: props[k]})
	}
	if len(required) > 0 {
		n.Required = make(map[string]bool, len(required))
		for _, r := range required {
			n.Required[r] = true
		}
	}
	return n
}

func stringNode() *spec.SchemaNode {
	return &spec.SchemaNode{Kind: spec.KindPrimitive, Type: "string"}
}

func newDoc(schemas map[string]*spec.SchemaNode, ops ...spec.Operation) *spec.Document {
	d := &spec.Document{Schemas: schemas, Operations: ops}
	for name := range schemas {
		d.SchemaNames = append(d.SchemaNames, name)
	}
	for i := 0; i < len(d.SchemaNames); i++ {
		for j := i + 1; j < len(d.SchemaNames); j++ {
			if d.SchemaNames[j] < d.SchemaNames[i] {
				d.SchemaNames[i], d.SchemaNames[j] = d.SchemaNames[j], d.SchemaNames[i]
			}
		}
	}
	return d
}

func TestAnalyzeUsage_RequestResponseBoth(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"CreateUser": objectNode(map[string]*spec.SchemaNode{"name": stringNode()}),
		"User":       objectNode(map[string]*spec.SchemaNode{"id": stringNode()}),
		"Shared":     objectNode(map[string]*spec.SchemaNode{"x": stringNode()}),
		"Orphan":     objectNode(map[string]*spec.SchemaNode{"y": stringNode()}),
	}, spec.Operation{
		ID: "createUser", Method: "post", Path: "/users",
		RequestBody: []spec.Media{
			{MIME: "application/json", Schema: refNode("CreateUser")},
			{MIME: "application/json", Schema: refNode("Shared")},
		},
		Responses: []spec.Media{
			{MIME: "application/json", Schema: refNode("User")},
			{MIME: "application/json", Schema: refNode("Shared")},
		},
	})

	usage, cycles := analyzeUsage(doc, FilterConfig{}, nil)
	if len(cycles) != 0 {
		t.Fatalf("unexpected cycles: %v", cycles)
	}
	if usage["CreateUser"] != UsageRequest {
		t.Fatalf("CreateUser = %v, want request", usage["CreateUser"])
	}
	if usage["User"] != UsageResponse {
		t.Fatalf("User = %v, want response", usage["User"])
	}
	if usage["Shared"] != UsageBoth {
		t.Fatalf("Shared = %v, want both", usage["Shared"])
	}
	if _, ok := usage["Orphan"]; ok {
		t.Fatalf("Orphan should be unclassified")
	}
}

func TestAnalyzeUsage_TransitiveClosure(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"User":    objectNode(map[string]*spec.SchemaNode{"address": refNode("Address")}),
		"Address": objectNode(map[string]*spec.SchemaNode{"country": refNode("Country")}),
		"Country": objectNode(map[string]*spec.SchemaNode{"code": stringNode()}),
	}, spec.Operation{
		ID: "getUser", Method: "get", Path: "/user",
		Responses: []spec.Media{{MIME: "application/json", Schema: refNode("User")}},
	})

	usage, _ := analyzeUsage(doc, FilterConfig{}, nil)
	for _, name := range []string{"User", "Address", "Country"} {
		if usage[name] != UsageResponse {
			t.Fatalf("%s = %v, want response", name, usage[name])
		}
	}
}

func TestAnalyzeUsage_CycleForcesBoth(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"A": objectNode(map[string]*spec.SchemaNode{"b": refNode("B")}),
		"B": objectNode(map[string]*spec.SchemaNode{"a": refNode("A")}),
	}, spec.Operation{
		ID: "getA", Method: "get", Path: "/a",
		Responses: []spec.Media{{MIME: "application/json", Schema: refNode("A")}},
	})

	usage, cycles := analyzeUsage(doc, FilterConfig{}, nil)
	if !cycles["A"] || !cycles["B"] {
		t.Fatalf("expected A and B in cycle set, got %v", cycles)
	}
	if usage["A"] != UsageBoth || usage["B"] != UsageBoth {
		t.Fatalf("cycle members must be both: A=%v B=%v", usage["A"], usage["B"])
	}
}

func TestAnalyzeUsage_SelfReferenceCycle(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"Node": objectNode(map[string]*spec.SchemaNode{
			"children": {Kind: spec.KindArray, Items: refNode("Node")},
		}),
	})
	_, cycles := analyzeUsage(doc, FilterConfig{}, nil)
	if !cycles["Node"] {
		t.Fatalf("self reference must be a cycle: %v", cycles)
	}
}

func TestAnalyzeUsage_AccessMarkerFallback(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"Input": objectNode(map[string]*spec.SchemaNode{
			"secret": {Kind: spec.KindPrimitive, Type: "string", WriteOnly: true},
		}),
		"Output": objectNode(map[string]*spec.SchemaNode{
			"id": {Kind: spec.KindPrimitive, Type: "string", ReadOnly: true},
		}),
		"Plain": objectNode(map[string]*spec.SchemaNode{"x": stringNode()}),
	})

	usage, _ := analyzeUsage(doc, FilterConfig{}, nil)
	if usage["Input"] != UsageRequest {
		t.Fatalf("Input = %v, want request", usage["Input"])
	}
	if usage["Output"] != UsageResponse {
		t.Fatalf("Output = %v, want response", usage["Output"])
	}
	if _, ok := usage["Plain"]; ok {
		t.Fatalf("Plain should stay unclassified")
	}
}

func TestAnalyzeUsage_FilteredToEmptyWarns(t *testing.T) {
	t.Parallel()
	doc := newDoc(map[string]*spec.SchemaNode{
		"User": objectNode(map[string]*spec.SchemaNode{"id": stringNode()}),
	}, spec.Operation{
		ID: "getUser", Method: "get", Path: "/user", Tags: []string{"internal"},
		Responses: []spec.Media{{MIME: "application/json", Schema: refNode("User")}},
	})

	var warned []string
	warn := func(format string, args ...any) { warned = append(warned, format) }
	filter := FilterConfig{Exclude: FilterRules{Tags: []string{"internal"}}}
	usage, _ := analyzeUsage(doc, filter, warn)
	if len(warned) == 0 {
		t.Fatalf("expected a warning when the filter matches nothing")
	}
	if _, ok := usage["User"]; ok {
		t.Fatalf("excluded operation must not classify User (no markers present)")
	}
}
