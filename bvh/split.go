package bvh

import (
	"math"
	"sort"

	"github.com/achilleasa/starmap/geom"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Next returns the axis that follows a in the X, Y, Z rotation.
func (a Axis) Next() Axis {
	return (a + 1) % 3
}

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "X"
	case YAxis:
		return "Y"
	case ZAxis:
		return "Z"
	}
	return "?"
}

const (
	// Split candidates are not evaluated along an axis whose extent is
	// below this threshold.
	minSideLength float32 = 1e-3

	defaultSplitBuckets = 32
)

var (
	// Sorts a range by object center along the split axis and splits it
	// at the middle index.
	MedianSplit SplitStrategy = medianSplit{}

	// Scores candidate split planes along all three axes with the surface
	// area heuristic.
	SurfaceAreaHeuristic SplitStrategy = SAHSplit{Buckets: defaultSplitBuckets}
)

// SplitItems is the object range a SplitStrategy partitions.
type SplitItems interface {
	Len() int
	Bounds(i int) geom.Box3
	Swap(i, j int)
}

// A SplitStrategy decides how a static BVH fork divides its objects.
type SplitStrategy interface {
	// Partition reorders items so that [0, mid) goes to the left child and
	// [mid, Len()) to the right child. The builder falls back to a median
	// split if mid leaves either side empty. axis is the round-robin axis
	// for the current depth.
	Partition(items SplitItems, axis Axis) (mid int)
}

type medianSplit struct{}

func (medianSplit) Partition(items SplitItems, axis Axis) int {
	sort.Stable(byAxis{SplitItems: items, axis: axis})
	return items.Len() / 2
}

type byAxis struct {
	SplitItems
	axis Axis
}

func (s byAxis) Less(i, j int) bool {
	return s.Bounds(i).Center()[s.axis] < s.Bounds(j).Center()[s.axis]
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

// SAHSplit scores splits using the surface area heuristic:
//
// left count * left bbox area + right count * right bbox area.
//
// Candidate split planes are evaluated in parallel. If no candidate scores
// better than keeping the range together it falls back to a median split
// along the requested axis.
type SAHSplit struct {
	// Number of candidate split planes per axis.
	Buckets int
}

func (h SAHSplit) Partition(items SplitItems, axis Axis) int {
	n := items.Len()
	boxes := make([]geom.Box3, n)
	extent := geom.InvertedBox3()
	for i := range boxes {
		boxes[i] = items.Bounds(i)
		extent.Merge(boxes[i])
	}

	buckets := h.Buckets
	if buckets <= 0 {
		buckets = defaultSplitBuckets
	}

	bestScore := scorePartition(boxes)
	var bestSplit *splitScore

	scoreChan := make(chan splitScore)
	pendingScores := 0
	side := extent.Dimensions()
	for splitAxis := XAxis; splitAxis <= ZAxis; splitAxis++ {
		if side[splitAxis] < minSideLength {
			continue
		}

		splitStep := side[splitAxis] / float32(buckets)
		for i := 1; i < buckets; i++ {
			pendingScores++
			go func(splitAxis Axis, splitPoint float32) {
				lCount, rCount, score := scoreSplit(boxes, splitAxis, splitPoint)
				scoreChan <- splitScore{
					axis:       splitAxis,
					splitPoint: splitPoint,
					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(splitAxis, extent.Min[splitAxis]+float32(i)*splitStep)
		}
	}

	for ; pendingScores > 0; pendingScores-- {
		candidate := <-scoreChan
		if candidate.score < bestScore || (bestSplit != nil && candidate.score == bestScore && candidate.less(bestSplit)) {
			bestScore = candidate.score
			bestSplit = &candidate
		}
	}

	if bestSplit == nil {
		return MedianSplit.Partition(items, axis)
	}

	sort.Stable(bySide{SplitItems: items, axis: bestSplit.axis, splitPoint: bestSplit.splitPoint})
	return bestSplit.leftCount
}

// less orders equally scored candidates so the choice does not depend on the
// order in which the scoring goroutines finish.
func (s *splitScore) less(other *splitScore) bool {
	if s.axis != other.axis {
		return s.axis < other.axis
	}
	return s.splitPoint < other.splitPoint
}

// bySide moves items whose center lies below splitPoint to the front while
// keeping the relative order on each side.
type bySide struct {
	SplitItems
	axis       Axis
	splitPoint float32
}

func (s bySide) Less(i, j int) bool {
	return s.isLeft(i) && !s.isLeft(j)
}

func (s bySide) isLeft(i int) bool {
	return s.Bounds(i).Center()[s.axis] < s.splitPoint
}

func scoreSplit(boxes []geom.Box3, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	left, right := geom.InvertedBox3(), geom.InvertedBox3()
	for _, box := range boxes {
		if box.Center()[axis] < splitPoint {
			leftCount++
			left.Merge(box)
		} else {
			rightCount++
			right.Merge(box)
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	return leftCount, rightCount, float32(leftCount)*halfArea(left) + float32(rightCount)*halfArea(right)
}

func scorePartition(boxes []geom.Box3) float32 {
	if len(boxes) == 0 {
		return math.MaxFloat32
	}
	extent := geom.InvertedBox3()
	for _, box := range boxes {
		extent.Merge(box)
	}
	return float32(len(boxes)) * halfArea(extent)
}

func halfArea(box geom.Box3) float32 {
	side := box.Dimensions()
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// splitRange exposes a slice of a StaticGraph's objects to a SplitStrategy.
// Swaps move objects and their bounds together.
type splitRange[K comparable] struct {
	graph      *StaticGraph[K]
	start, end int32
}

func (r *splitRange[K]) Len() int {
	return int(r.end - r.start)
}

func (r *splitRange[K]) Bounds(i int) geom.Box3 {
	return r.graph.bounds[r.start+int32(i)]
}

func (r *splitRange[K]) Swap(i, j int) {
	i, j = i+int(r.start), j+int(r.start)
	objects, bounds := r.graph.Objects, r.graph.bounds
	objects[i], objects[j] = objects[j], objects[i]
	bounds[i], bounds[j] = bounds[j], bounds[i]
}
