package bridge

import (
	"sync/atomic"

	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
)

// FlatPoseRecord is the self-contained output unit written into the
// caller's buffer: three uint32 fields followed by seven float32 components,
// matching the C-side manus_node_pose layout field for field.
type FlatPoseRecord struct {
	GloveID     uint32
	NodeID      uint32
	Side        uint32
	Position    manus.Vec3
	Orientation manus.Quat
}

// PoseFlattener serialises a claimed snapshot into a flat, fixed-capacity
// sequence of pose records. It runs on the consumer thread. Node metadata is
// looked up from the source once per skeleton per flatten, never cached
// across polls, because it can change between frames.
type PoseFlattener struct {
	src         manus.Source
	truncations atomic.Uint64
}

// NewPoseFlattener returns a flattener resolving node metadata via src.
func NewPoseFlattener(src manus.Source) *PoseFlattener {
	return &PoseFlattener{src: src}
}

// Flatten walks skeletons in snapshot order and writes their nodes into out,
// returning how many records were written. The capacity check is per
// skeleton: a skeleton whose nodes do not all fit is excluded entirely and
// processing stops, so no skeleton is ever partially emitted. A metadata
// lookup failure skips just that skeleton. The result never exceeds
// len(out), and zero is a valid answer meaning nothing was available or
// nothing fit.
func (f *PoseFlattener) Flatten(snap *FrameSnapshot, out []FlatPoseRecord) int {
	if snap == nil {
		return 0
	}

	written := 0
	for i := range snap.Skeletons {
		sk := &snap.Skeletons[i]
		if written+int(sk.NodeCount) > len(out) {
			f.truncations.Add(1)
			monitoring.Logf("bridge: pose buffer overflow prevented: need %d slots but only %d available",
				written+int(sk.NodeCount), len(out))
			break
		}

		infos, err := f.src.NodeInfos(sk.GloveID, sk.NodeCount)
		if err != nil {
			monitoring.Logf("bridge: skipping glove %d: node info lookup failed: %v", sk.GloveID, err)
			continue
		}
		if len(infos) != len(sk.Nodes) {
			monitoring.Logf("bridge: skipping glove %d: node info length %d does not match %d nodes",
				sk.GloveID, len(infos), len(sk.Nodes))
			continue
		}

		for j := range sk.Nodes {
			out[written] = FlatPoseRecord{
				GloveID:     sk.GloveID,
				NodeID:      infos[j].NodeID,
				Side:        uint32(infos[j].Side),
				Position:    sk.Nodes[j].Position,
				Orientation: sk.Nodes[j].Rotation,
			}
			written++
		}
	}
	return written
}

// Truncations reports how many flatten passes hit the capacity bound.
func (f *PoseFlattener) Truncations() uint64 {
	return f.truncations.Load()
}
