package context

// MaxCascadeDepth bounds how far cascading activation expands from a forced
// fragment. Matches are collected while expanding levels 0 through
// MaxCascadeDepth-1, so a fragment at most MaxCascadeDepth hops away can activate.
const MaxCascadeDepth = 4

// activationGraph is the "key of B occurs in text of A" relation over one
// snapshot of fragments, computed once per assembly pass.
type activationGraph struct {
	fragments []*Fragment
	// edges[a] lists every b whose keys occur in fragments[a]'s text.
	edges [][]int
}

func newActivationGraph(fragments []*Fragment) *activationGraph {
	g := &activationGraph{
		fragments: fragments,
		edges:     make([][]int, len(fragments)),
	}
	for a, fa := range fragments {
		for b, fb := range fragments {
			if a != b && fb.keyIn(fa) {
				g.edges[a] = append(g.edges[a], b)
			}
		}
	}
	return g
}

// matches reports whether b is activated by a's text.
func (g *activationGraph) matches(a, b int) bool {
	for _, x := range g.edges[a] {
		if x == b {
			return true
		}
	}
	return false
}

// resolve returns which fragments participate: every forced fragment plus
// everything reachable by cascade from a forced, cascading fragment.
func (g *activationGraph) resolve() []bool {
	active := make([]bool, len(g.fragments))
	for root, f := range g.fragments {
		if !f.forced {
			continue
		}
		active[root] = true
		if f.cascading {
			g.cascade(root, active)
		}
	}
	return active
}

// cascade runs a depth-bounded DFS from root. expanded[b] is the shallowest
// level b has been expanded at; b is expanded again only from a shallower
// level, so the search stays finite and reaches the same fixpoint whatever
// the edge order. A mutual match (b also activates a) is included but not
// expanded along that edge; another edge may still expand b.
func (g *activationGraph) cascade(root int, active []bool) {
	expanded := make([]int, len(g.fragments))
	for i := range expanded {
		expanded[i] = MaxCascadeDepth + 1
	}
	expanded[root] = 0

	var visit func(a, level int)
	visit = func(a, level int) {
		if level >= MaxCascadeDepth {
			return
		}
		for _, b := range g.edges[a] {
			active[b] = true
			if g.matches(b, a) || expanded[b] <= level+1 {
				continue
			}
			expanded[b] = level + 1
			visit(b, level+1)
		}
	}
	visit(root, 0)
}
