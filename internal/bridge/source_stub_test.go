package bridge

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
)

// stubSource is a scriptable manus.Source for exercising the bridge's
// partial-failure and retry paths deterministically.
type stubSource struct {
	infos    []manus.SkeletonInfo
	nodes    [][]manus.SkeletonNode
	metadata map[uint32][]manus.NodeInfo

	failInfo     map[uint32]bool // by skeleton index
	failNodes    map[uint32]bool // by skeleton index
	failMetadata map[uint32]bool // by glove ID

	initErr     error
	registerErr error
	connectFail int // number of Connect attempts that fail before success

	attempts   int
	shutdowns  int
	handMotion manus.HandMotion
	cb         manus.StreamCallback
}

func newStubSource(nodeCounts ...int) *stubSource {
	s := &stubSource{
		metadata:     map[uint32][]manus.NodeInfo{},
		failInfo:     map[uint32]bool{},
		failNodes:    map[uint32]bool{},
		failMetadata: map[uint32]bool{},
	}
	for i, n := range nodeCounts {
		gloveID := uint32(i + 1)
		s.infos = append(s.infos, manus.SkeletonInfo{GloveID: gloveID, NodeCount: uint32(n)})
		nodes := make([]manus.SkeletonNode, n)
		infos := make([]manus.NodeInfo, n)
		side := manus.SideLeft
		if gloveID%2 == 0 {
			side = manus.SideRight
		}
		for j := range nodes {
			nodes[j] = manus.SkeletonNode{
				Position: manus.Vec3{X: float32(gloveID), Y: float32(j), Z: 0.5},
				Rotation: manus.Quat{W: 1},
			}
			infos[j] = manus.NodeInfo{NodeID: gloveID*100 + uint32(j), Side: side}
		}
		s.nodes = append(s.nodes, nodes)
		s.metadata[gloveID] = infos
	}
	return s
}

// emit fires the registered stream callback for the staged skeletons, the
// way the SDK would on its own thread.
func (s *stubSource) emit() {
	s.cb(manus.SkeletonStreamInfo{
		SkeletonCount: uint32(len(s.infos)),
		PublishTime:   time.Now(),
	})
}

func (s *stubSource) Initialize() error { return s.initErr }

func (s *stubSource) RegisterStreamCallback(cb manus.StreamCallback) error {
	if s.registerErr != nil {
		return s.registerErr
	}
	s.cb = cb
	return nil
}

func (s *stubSource) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.attempts++
	if s.attempts <= s.connectFail {
		return fmt.Errorf("host unreachable")
	}
	return nil
}

func (s *stubSource) SkeletonInfo(index uint32) (manus.SkeletonInfo, error) {
	if s.failInfo[index] {
		return manus.SkeletonInfo{}, fmt.Errorf("info fetch failed for %d", index)
	}
	if int(index) >= len(s.infos) {
		return manus.SkeletonInfo{}, fmt.Errorf("index %d out of range", index)
	}
	return s.infos[index], nil
}

func (s *stubSource) SkeletonNodes(index uint32, out []manus.SkeletonNode) error {
	if s.failNodes[index] {
		return fmt.Errorf("node fetch failed for %d", index)
	}
	if int(index) >= len(s.nodes) {
		return fmt.Errorf("index %d out of range", index)
	}
	if len(out) != len(s.nodes[index]) {
		return fmt.Errorf("node count mismatch")
	}
	copy(out, s.nodes[index])
	return nil
}

func (s *stubSource) NodeInfos(gloveID, nodeCount uint32) ([]manus.NodeInfo, error) {
	if s.failMetadata[gloveID] {
		return nil, fmt.Errorf("metadata lookup failed for glove %d", gloveID)
	}
	infos, ok := s.metadata[gloveID]
	if !ok {
		return nil, fmt.Errorf("unknown glove %d", gloveID)
	}
	if int(nodeCount) != len(infos) {
		return nil, fmt.Errorf("node count mismatch for glove %d", gloveID)
	}
	return infos, nil
}

func (s *stubSource) SetHandMotion(mode manus.HandMotion) error {
	s.handMotion = mode
	return nil
}

func (s *stubSource) Shutdown() error {
	s.shutdowns++
	return nil
}

// muteLogs silences the package logger for a test exercising failure paths.
func muteLogs(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
}
