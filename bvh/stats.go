package bvh

// Stats summarizes the shape of a spatial structure.
type Stats struct {
	// Size of the node arena including freed slots.
	Nodes int
	Free  int

	Leaves   int
	Forks    int
	Objects  int
	MaxDepth int
}
