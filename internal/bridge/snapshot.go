// Package bridge hands motion-capture skeleton frames from a push-driven
// source callback to a pull-driven consumer. The source publishes each
// assembled frame into a single-slot, latest-wins mailbox; the consumer
// claims at most one frame per poll and flattens it into a fixed-capacity
// record buffer. Frames that are overwritten before being claimed are
// dropped; delivery of every frame is explicitly not a goal.
package bridge

import (
	"time"

	"github.com/banshee-data/mocap.bridge/internal/manus"
)

// PoseNode is one joint sample within a skeleton.
type PoseNode = manus.SkeletonNode

// Skeleton is one glove's assembled pose: identifying info plus an ordered
// node sequence whose length always equals NodeCount. Skeletons whose node
// data could not be fetched are never assembled.
type Skeleton struct {
	GloveID     uint32
	NodeCount   uint32
	PublishTime time.Time
	Nodes       []PoseNode
}

// FrameSnapshot is everything known as of one stream callback firing. It is
// immutable once assembled and owned by exactly one stage at a time: the
// assembler while building, the slot while pending, the consumer while
// flattening.
type FrameSnapshot struct {
	Seq         uint64
	PublishTime time.Time
	Skeletons   []Skeleton
}

// TotalNodes returns the number of pose records a full flatten of the
// snapshot would produce.
func (f *FrameSnapshot) TotalNodes() int {
	if f == nil {
		return 0
	}
	total := 0
	for i := range f.Skeletons {
		total += int(f.Skeletons[i].NodeCount)
	}
	return total
}
