// Package manus defines the narrow surface of the motion-capture source the
// bridge consumes: per-frame stream metadata delivered on the source's own
// callback thread, plus pull-style queries for skeleton structure, node data
// and node metadata. A simulated source is included for development and tests;
// the vendor SDK plugs in behind the same Source interface.
package manus

import "time"

// Vec3 is a position in meters. Field order matches the wire layout used by
// the flattened pose records, so keep X, Y, Z contiguous float32s.
type Vec3 struct {
	X float32
	Y float32
	Z float32
}

// Quat is a rotation quaternion in x-y-z-w order, matching the source's
// convention. No conversion is performed anywhere in the bridge.
type Quat struct {
	X float32
	Y float32
	Z float32
	W float32
}

// Side identifies which hand a node belongs to.
type Side uint32

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// HandMotion selects how the raw skeleton stream derives wrist motion.
type HandMotion int

const (
	HandMotionNone HandMotion = iota
	HandMotionIMU
	HandMotionTracker
)

func (m HandMotion) String() string {
	switch m {
	case HandMotionIMU:
		return "imu"
	case HandMotionTracker:
		return "tracker"
	default:
		return "none"
	}
}

// SkeletonStreamInfo is the per-frame metadata handed to the stream callback.
// It only announces what is available; the skeleton data itself must be
// queried from the source before the callback returns.
type SkeletonStreamInfo struct {
	SkeletonCount uint32
	PublishTime   time.Time
}

// SkeletonInfo describes one skeleton within the current frame.
type SkeletonInfo struct {
	GloveID   uint32
	NodeCount uint32
}

// SkeletonNode is one joint sample: position plus rotation quaternion.
type SkeletonNode struct {
	Position Vec3
	Rotation Quat
}

// NodeInfo is per-node metadata resolved by glove ID. It can change between
// frames, so callers must not cache it across polls.
type NodeInfo struct {
	NodeID uint32
	Side   Side
}
