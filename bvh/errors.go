package bvh

import "errors"

var (
	ErrArenaFull         = errors.New("bvh: node arena is full")
	ErrIndexOutOfRange   = errors.New("bvh: node index out of range")
	ErrInvalidNode       = errors.New("bvh: node is not valid")
	ErrInvalidLeafSize   = errors.New("bvh: objects per leaf must be at least 1")
	ErrEmptyOctreeBounds = errors.New("bvh: octree bounds must have a non-zero volume")
	ErrOutOfBounds       = errors.New("bvh: object lies outside the octree bounds")
)
