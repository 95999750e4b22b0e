package context

import (
	"sort"
)

// Well-known insertion orders.
const (
	OrderSystemPrompt = 1000
	OrderConversation = 0
)

// sortByPriority returns a copy of fragments ordered by insertion order,
// highest first. Ties keep their relative order.
func sortByPriority(fragments []*Fragment) []*Fragment {
	sorted := make([]*Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].insertionOrder > sorted[j].insertionOrder
	})
	return sorted
}
