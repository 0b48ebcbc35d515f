package core

import "strings"

// DFSState is the shared on-path-stack bookkeeping used by every cycle
// detector in this module: the import graph (pkg/bundle), the type
// alias graph (pkg/typeenv), and the flow/subflow step graphs
// (pkg/validate). See spec.md §9 "Cyclic graphs" — each of these is a
// general graph walked with a visited set and an on-path stack, and
// each reports the closing edge, not the opening one.
type DFSState struct {
	onStack map[string]bool
	visited map[string]bool
	stack   []string
}

// NewDFSState creates an empty traversal state.
func NewDFSState() *DFSState {
	return &DFSState{onStack: make(map[string]bool), visited: make(map[string]bool)}
}

// Enter pushes node onto the on-path stack. ok is false if node is
// already on the stack — the cycle closes here, at this edge.
func (s *DFSState) Enter(node string) (ok bool) {
	if s.onStack[node] {
		return false
	}
	s.onStack[node] = true
	s.stack = append(s.stack, node)
	return true
}

// Leave pops node off the on-path stack once its subtree is done.
func (s *DFSState) Leave(node string) {
	s.onStack[node] = false
	if n := len(s.stack); n > 0 && s.stack[n-1] == node {
		s.stack = s.stack[:n-1]
	}
}

// OnStack reports whether node is currently on the on-path stack,
// without mutating traversal state — used when the caller needs to
// report a cycle at a specific edge (e.g. an import statement) rather
// than at the point Enter is called.
func (s *DFSState) OnStack(node string) bool { return s.onStack[node] }

// Visited reports whether node has already been fully explored.
func (s *DFSState) Visited(node string) bool { return s.visited[node] }

// MarkVisited records that node's subtree has been fully explored.
func (s *DFSState) MarkVisited(node string) { s.visited[node] = true }

// Path returns the current on-path stack with closing appended, the
// raw material for a "A → B → A" cycle description.
func (s *DFSState) Path(closing string) []string {
	p := make([]string, len(s.stack), len(s.stack)+1)
	copy(p, s.stack)
	return append(p, closing)
}

// FormatCyclePath renders a cycle path the way every pass's cycle
// error message does: "A → B → A".
func FormatCyclePath(path []string) string {
	return strings.Join(path, " → ")
}
