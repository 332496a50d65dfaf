package bvh

// Options tune the node arena of a Tree.
type Options struct {
	// Number of nodes to preallocate. A tree holding n objects uses 2n-1
	// nodes.
	NodeCountHint int32

	// Upper bound on the arena size. Insertions that would need more nodes
	// fail with ErrArenaFull. Zero means unbounded.
	MaxNodes int32
}

// DefaultOptions returns options sized for the given number of objects.
func DefaultOptions(objectCount int32) Options {
	hint := objectCount*2 - 1
	if hint < 0 {
		hint = 0
	}
	return Options{NodeCountHint: hint}
}
