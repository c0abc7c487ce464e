package zodgen

import (
	"reflect"
	"testing"
)

func depsOf(pairs map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(pairs))
	for name, targets := range pairs {
		set := make(map[string]struct{}, len(targets))
		for _, t := range targets {
			set[t] = struct{}{}
		}
		out[name] = set
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

func TestOrderDeclarations_DependenciesFirst(t *testing.T) {
	t.Parallel()
	names := []string{"User", "Address", "Country"}
	deps := depsOf(map[string][]string{
		"User":    {"Address"},
		"Address": {"Country"},
	})
	got := orderDeclarations(names, deps, nil)
	if !reflect.DeepEqual(got, []string{"Country", "Address", "User"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestOrderDeclarations_Stability(t *testing.T) {
	t.Parallel()
	names := []string{"C", "A", "B"}
	got := orderDeclarations(names, nil, nil)
	if !reflect.DeepEqual(got, names) {
		t.Fatalf("independent names must keep input order, got %v", got)
	}
	again := orderDeclarations(names, nil, nil)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("re-run differs: %v vs %v", got, again)
	}
}

func TestOrderDeclarations_CycleMembersPresent(t *testing.T) {
	t.Parallel()
	names := []string{"A", "B", "Other"}
	deps := depsOf(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	got := orderDeclarations(names, deps, nil)
	if len(got) != 3 {
		t.Fatalf("every input name must appear exactly once, got %v", got)
	}
	for _, name := range names {
		if indexOf(got, name) < 0 {
			t.Fatalf("missing %s in %v", name, got)
		}
	}
}

func TestOrderDeclarations_CycleAfterExternalDeps(t *testing.T) {
	t.Parallel()
	// A <-> B cycle where A also depends on Leaf; Leaf must precede both.
	names := []string{"A", "B", "Leaf"}
	deps := depsOf(map[string][]string{
		"A": {"B", "Leaf"},
		"B": {"A"},
	})
	got := orderDeclarations(names, deps, nil)
	if indexOf(got, "Leaf") > indexOf(got, "B") || indexOf(got, "Leaf") > indexOf(got, "A") {
		t.Fatalf("external dependency must precede cycle members: %v", got)
	}
}

func TestOrderDeclarations_AliasesLast(t *testing.T) {
	t.Parallel()
	names := []string{"Alias", "Base", "Other"}
	deps := depsOf(map[string][]string{
		"Alias": {"Base"},
	})
	isAlias := func(name string) bool { return name == "Alias" }
	got := orderDeclarations(names, deps, isAlias)
	if got[len(got)-1] != "Alias" {
		t.Fatalf("alias must be last: %v", got)
	}
}

func TestOrderDeclarations_MutualAliasesNoCycle(t *testing.T) {
	t.Parallel()
	// Two declarations that are aliases of each other must not trip cycle
	// handling; both are simply appended at the end in input order.
	names := []string{"X", "Y"}
	deps := depsOf(map[string][]string{
		"X": {"Y"},
		"Y": {"X"},
	})
	isAlias := func(string) bool { return true }
	got := orderDeclarations(names, deps, isAlias)
	if !reflect.DeepEqual(got, []string{"X", "Y"}) {
		t.Fatalf("mutual aliases keep input order: %v", got)
	}
}
