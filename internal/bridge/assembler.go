package bridge

import (
	"sync/atomic"

	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
)

// FrameAssembler builds one immutable FrameSnapshot per stream callback and
// publishes it to the slot. It runs entirely on the source's callback
// thread and must finish before the callback returns, since the source does
// not keep the referenced data valid afterwards.
type FrameAssembler struct {
	src  manus.Source
	slot *LatestFrameSlot
	seq  atomic.Uint64
}

// NewFrameAssembler wires an assembler to its source and output slot.
func NewFrameAssembler(src manus.Source, slot *LatestFrameSlot) *FrameAssembler {
	return &FrameAssembler{src: src, slot: slot}
}

// OnSkeletonStream is the registered stream callback. A fetch failure for
// one skeleton is logged and skipped rather than aborting the frame; a
// degraded frame is still useful. Frames that end up with zero skeletons
// are still published, so the consumer can tell "source reported nothing"
// from "nothing published since last poll".
func (a *FrameAssembler) OnSkeletonStream(info manus.SkeletonStreamInfo) {
	snap := &FrameSnapshot{
		Seq:         a.seq.Add(1),
		PublishTime: info.PublishTime,
		Skeletons:   make([]Skeleton, 0, info.SkeletonCount),
	}

	for i := uint32(0); i < info.SkeletonCount; i++ {
		si, err := a.src.SkeletonInfo(i)
		if err != nil {
			monitoring.Logf("bridge: skipping skeleton %d: info fetch failed: %v", i, err)
			continue
		}
		nodes := make([]PoseNode, si.NodeCount)
		if err := a.src.SkeletonNodes(i, nodes); err != nil {
			monitoring.Logf("bridge: skipping skeleton %d (glove %d): node fetch failed: %v", i, si.GloveID, err)
			continue
		}
		snap.Skeletons = append(snap.Skeletons, Skeleton{
			GloveID:     si.GloveID,
			NodeCount:   si.NodeCount,
			PublishTime: info.PublishTime,
			Nodes:       nodes,
		})
	}

	a.slot.Publish(snap)
}
