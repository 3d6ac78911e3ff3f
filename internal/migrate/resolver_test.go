package migrate_test

import (
	"testing"

	"db-bridge/internal/catalog"
	"db-bridge/internal/migrate"
)

func ref(name string) catalog.TableRef {
	return catalog.TableRef{Schema: "public", Name: name}
}

func indexOf(order []catalog.TableRef, name string) int {
	for i, t := range order {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func TestSortByDependency_ParentsFirst(t *testing.T) {
	// order_items -> orders -> users
	selection := []catalog.TableRef{ref("order_items"), ref("orders"), ref("users")}
	deps := []catalog.TableDependency{
		{Table: ref("order_items"), DependsOn: []catalog.TableRef{ref("orders")}},
		{Table: ref("orders"), DependsOn: []catalog.TableRef{ref("users")}},
	}

	order := migrate.SortByDependency(selection, deps)

	if len(order) != 3 {
		t.Fatalf("Expected 3 tables, got %d", len(order))
	}
	if order[0].Name != "users" || order[1].Name != "orders" || order[2].Name != "order_items" {
		t.Errorf("Wrong order: %v", order)
	}
}

func TestSortByDependency_TransitiveChain(t *testing.T) {
	// e -> d -> c -> b -> a, selected in reverse so the traversal has to
	// walk the whole chain.
	selection := []catalog.TableRef{ref("e"), ref("d"), ref("c"), ref("b"), ref("a")}
	deps := []catalog.TableDependency{
		{Table: ref("e"), DependsOn: []catalog.TableRef{ref("d")}},
		{Table: ref("d"), DependsOn: []catalog.TableRef{ref("c")}},
		{Table: ref("c"), DependsOn: []catalog.TableRef{ref("b")}},
		{Table: ref("b"), DependsOn: []catalog.TableRef{ref("a")}},
	}

	order := migrate.SortByDependency(selection, deps)

	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if order[i].Name != want {
			t.Fatalf("Position %d: expected %s, got %s", i, want, order[i].Name)
		}
	}
}

func TestSortByDependency_DeterministicAmongIndependent(t *testing.T) {
	selection := []catalog.TableRef{ref("zebra"), ref("apple"), ref("mango")}

	order := migrate.SortByDependency(selection, nil)

	if order[0].Name != "apple" || order[1].Name != "mango" || order[2].Name != "zebra" {
		t.Errorf("Independent tables should come out in lexicographic order, got %v", order)
	}

	// Same input, shuffled: same output.
	again := migrate.SortByDependency([]catalog.TableRef{ref("mango"), ref("zebra"), ref("apple")}, nil)
	for i := range order {
		if again[i] != order[i] {
			t.Errorf("Result depends on selection order: %v vs %v", order, again)
		}
	}
}

func TestSortByDependency_CycleToleratedExactlyOnce(t *testing.T) {
	// a -> b -> c -> a plus an outsider referencing into the cycle.
	selection := []catalog.TableRef{ref("a"), ref("b"), ref("c"), ref("f")}
	deps := []catalog.TableDependency{
		{Table: ref("a"), DependsOn: []catalog.TableRef{ref("b")}},
		{Table: ref("b"), DependsOn: []catalog.TableRef{ref("c")}},
		{Table: ref("c"), DependsOn: []catalog.TableRef{ref("a")}},
		{Table: ref("f"), DependsOn: []catalog.TableRef{ref("c")}},
	}

	order := migrate.SortByDependency(selection, deps)

	if len(order) != 4 {
		t.Fatalf("Expected 4 tables, got %d: %v", len(order), order)
	}
	seen := make(map[string]int)
	for _, tbl := range order {
		seen[tbl.Name]++
	}
	for _, name := range []string{"a", "b", "c", "f"} {
		if seen[name] != 1 {
			t.Errorf("Table %s appears %d times", name, seen[name])
		}
	}
	// The acyclic edge f -> c must still hold.
	if indexOf(order, "c") > indexOf(order, "f") {
		t.Errorf("f should come after c, got %v", order)
	}
}

func TestSortByDependency_EdgesOutsideSelectionIgnored(t *testing.T) {
	// orders references users, but users is not selected; orders must not
	// be held back or pulled in.
	selection := []catalog.TableRef{ref("orders")}
	deps := []catalog.TableDependency{
		{Table: ref("orders"), DependsOn: []catalog.TableRef{ref("users")}},
	}

	order := migrate.SortByDependency(selection, deps)

	if len(order) != 1 || order[0].Name != "orders" {
		t.Errorf("Expected just orders, got %v", order)
	}
}

func TestSortByDependency_CrossSchema(t *testing.T) {
	audit := catalog.TableRef{Schema: "audit", Name: "events"}
	users := catalog.TableRef{Schema: "public", Name: "users"}
	selection := []catalog.TableRef{users, audit}
	deps := []catalog.TableDependency{
		{Table: audit, DependsOn: []catalog.TableRef{users}},
	}

	order := migrate.SortByDependency(selection, deps)

	if order[0] != users || order[1] != audit {
		t.Errorf("Expected public.users before audit.events, got %v", order)
	}
}
