package vault

// NodeRef is a directed parent/child edge in the node graph, stamped with
// the idx of the player that created the edge, or 0 for system-created
// edges (spec.md §3.2).
type NodeRef struct {
	Parent uint32
	Child  uint32
	Owner  uint32
}
