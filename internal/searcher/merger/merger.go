// Package merger combines per-shard result lists into one top-k list.
package merger

import (
	"container/heap"
)

// Merge returns the best limit items across lists, best first. before
// reports whether a ranks ahead of b and must be a strict total order for
// the result to be deterministic.
func Merge[T any](lists [][]T, limit int, before func(a, b T) bool) []T {
	if limit <= 0 {
		limit = 10
	}
	h := &boundedHeap[T]{before: before}
	for _, list := range lists {
		for _, item := range list {
			heap.Push(h, item)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	result := make([]T, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(T)
	}
	return result
}

// TopK is Merge over a single list.
func TopK[T any](items []T, limit int, before func(a, b T) bool) []T {
	return Merge([][]T{items}, limit, before)
}

// boundedHeap is a min-heap by rank: the root is the worst kept item.
type boundedHeap[T any] struct {
	items  []T
	before func(a, b T) bool
}

func (h boundedHeap[T]) Len() int { return len(h.items) }

func (h boundedHeap[T]) Less(i, j int) bool {
	return h.before(h.items[j], h.items[i])
}

func (h boundedHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *boundedHeap[T]) Push(x any) {
	h.items = append(h.items, x.(T))
}

func (h *boundedHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
