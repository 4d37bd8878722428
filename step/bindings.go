package step

// chainCell and Chain implement the persistent singly-linked binding list
// described by the data model: extending is an O(1) allocation that leaves
// the receiver untouched, so a failed branch's extension is simply
// discarded while every other holder of the original chain keeps seeing
// the unextended prefix. Do not be tempted to back this with a map —
// backtracking depends on cheap structural sharing of prefixes across
// many live branches at once, which a mutable map cannot give you.
type chainCell[K comparable, V any] struct {
	key  K
	val  V
	tail *chainCell[K, V]
}

type Chain[K comparable, V any] struct {
	head *chainCell[K, V]
}

// Extend returns a new chain with key bound to val, leaving c unmodified.
func (c Chain[K, V]) Extend(key K, val V) Chain[K, V] {
	return Chain[K, V]{head: &chainCell[K, V]{key: key, val: val, tail: c.head}}
}

// Lookup walks from the most recent binding backwards, so a later Extend of
// the same key shadows an earlier one.
func (c Chain[K, V]) Lookup(key K) (V, bool) {
	for cell := c.head; cell != nil; cell = cell.tail {
		if cell.key == key {
			return cell.val, true
		}
	}
	var zero V
	return zero, false
}

// Len walks the whole chain; it exists for tests and diagnostics, not for
// any hot path.
func (c Chain[K, V]) Len() int {
	n := 0
	for cell := c.head; cell != nil; cell = cell.tail {
		n++
	}
	return n
}

// Walk calls fn once per key present in the chain, most recent binding
// only, in no particular order. Used to flatten a chain's final bindings
// out into persistent storage (a module's dictionary, a caller's own
// bookkeeping) once backtracking is done and only the winning values
// matter.
func (c Chain[K, V]) Walk(fn func(key K, val V)) {
	seen := map[K]bool{}
	for cell := c.head; cell != nil; cell = cell.tail {
		if seen[cell.key] {
			continue
		}
		seen[cell.key] = true
		fn(cell.key, cell.val)
	}
}

// Trail is the local-variable binding list threaded through unification
// and backtracking within one top-level call.
type Trail = Chain[*LocalVar, Term]

// State is the persistent state-variable binding list. Unlike Trail, a
// module's dynamic state is meant to outlive any single call — the
// top-level API hands callers back the State value left over after a call
// so they can feed it into the next one.
type State = Chain[StateVar, Term]
