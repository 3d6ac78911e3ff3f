package migrate

import (
	"sort"

	"db-bridge/internal/catalog"
)

// SortByDependency orders the selected tables so every table appears after
// all selected tables it references, directly or transitively. Edges
// leaving the selection are ignored. The traversal visits tables in
// lexicographic (schema, name) order, so the result is stable among
// independent tables.
//
// Cycles are tolerated, not reported: re-entering a table that is still on
// the current traversal path drops that edge and carries on, so the output
// always contains each selected table exactly once, and is a valid
// topological order whenever the restricted graph is acyclic.
func SortByDependency(selection []catalog.TableRef, deps []catalog.TableDependency) []catalog.TableRef {
	selected := make(map[catalog.TableRef]bool, len(selection))
	for _, t := range selection {
		selected[t] = true
	}

	// Restrict edges to those with both endpoints in the selection.
	edges := make(map[catalog.TableRef][]catalog.TableRef)
	for _, dep := range deps {
		if !selected[dep.Table] {
			continue
		}
		for _, parent := range dep.DependsOn {
			if selected[parent] {
				edges[dep.Table] = append(edges[dep.Table], parent)
			}
		}
	}
	for _, parents := range edges {
		sortRefs(parents)
	}

	outer := make([]catalog.TableRef, len(selection))
	copy(outer, selection)
	sortRefs(outer)

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[catalog.TableRef]int, len(outer))
	order := make([]catalog.TableRef, 0, len(outer))

	var visit func(t catalog.TableRef)
	visit = func(t catalog.TableRef) {
		if state[t] != unvisited {
			// done: already placed; inProgress: cycle edge, dropped.
			return
		}
		state[t] = inProgress
		for _, parent := range edges[t] {
			visit(parent)
		}
		state[t] = done
		order = append(order, t)
	}

	for _, t := range outer {
		visit(t)
	}
	return order
}

func sortRefs(refs []catalog.TableRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Schema != refs[j].Schema {
			return refs[i].Schema < refs[j].Schema
		}
		return refs[i].Name < refs[j].Name
	})
}
