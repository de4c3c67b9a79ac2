// Package graph orders records so that every record comes after the records
// it references.
package graph

import (
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Node is a record with an identity and references to other records of the
// same collection.
type Node interface {
	Key() string
	Dependencies() []string
}

// Resolve returns nodes ordered so that each node follows its internal
// dependencies. A dependency is internal unless isExternal reports true for
// it. Resolution runs in rounds: each round emits, in input order, every
// pending node whose internal dependencies have all been emitted. A round that
// emits nothing stops resolution with a CyclicOrDanglingGraphError holding
// every still-pending node in input order.
func Resolve[T Node](entity types.EntityType, nodes []T, isExternal func(string) bool) ([]T, error) {
	ordered := make([]T, 0, len(nodes))
	done := make(map[string]bool, len(nodes))
	pending := nodes

	for len(pending) > 0 {
		var next []T
		progress := false
		for _, n := range pending {
			if ready(n, done, isExternal) {
				ordered = append(ordered, n)
				done[n.Key()] = true
				progress = true
				continue
			}
			next = append(next, n)
		}
		if !progress {
			stuck := make([]any, len(next))
			for i, n := range next {
				stuck[i] = n
			}
			return ordered, &types.CyclicOrDanglingGraphError{Entity: entity, Pending: stuck}
		}
		pending = next
	}
	return ordered, nil
}

func ready[T Node](n T, done map[string]bool, isExternal func(string) bool) bool {
	for _, dep := range n.Dependencies() {
		if isExternal != nil && isExternal(dep) {
			continue
		}
		if !done[dep] {
			return false
		}
	}
	return true
}

// ExternalDependencies returns the distinct external dependencies of nodes in
// first-seen order.
func ExternalDependencies[T Node](nodes []T, isExternal func(string) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range nodes {
		for _, dep := range n.Dependencies() {
			if !isExternal(dep) || seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
		}
	}
	return out
}

// Descendants returns every key reachable from roots through children,
// roots included, in visit order. Shared and cyclic paths are visited once.
func Descendants(roots []string, children map[string][]string) []string {
	visited := make(map[string]bool)
	var out []string
	work := append([]string(nil), roots...)
	for len(work) > 0 {
		key := work[0]
		work = work[1:]
		if visited[key] {
			continue
		}
		visited[key] = true
		out = append(out, key)
		for _, child := range children[key] {
			if !visited[child] {
				work = append(work, child)
			}
		}
	}
	return out
}
