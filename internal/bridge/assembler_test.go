package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap.bridge/internal/manus"
)

func TestAssembleFullFrame(t *testing.T) {
	src := newStubSource(3, 5)
	slot := NewLatestFrameSlot()
	asm := NewFrameAssembler(src, slot)

	publish := time.Now()
	asm.OnSkeletonStream(manus.SkeletonStreamInfo{SkeletonCount: 2, PublishTime: publish})

	snap := slot.Claim()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, publish, snap.PublishTime)
	require.Len(t, snap.Skeletons, 2)
	for i, sk := range snap.Skeletons {
		assert.Equal(t, src.infos[i].GloveID, sk.GloveID)
		assert.Equal(t, int(sk.NodeCount), len(sk.Nodes), "node sequence length must match the declared count")
		assert.Equal(t, publish, sk.PublishTime)
	}
	assert.Equal(t, 8, snap.TotalNodes())
}

// A fetch failure for one skeleton is isolated; the rest of the frame is
// still assembled and published.
func TestAssemblePartialFailure(t *testing.T) {
	muteLogs(t)
	src := newStubSource(2, 3, 4)
	src.failInfo[0] = true
	src.failNodes[1] = true
	slot := NewLatestFrameSlot()
	asm := NewFrameAssembler(src, slot)

	asm.OnSkeletonStream(manus.SkeletonStreamInfo{SkeletonCount: 3, PublishTime: time.Now()})

	snap := slot.Claim()
	require.NotNil(t, snap)
	require.Len(t, snap.Skeletons, 1)
	assert.Equal(t, uint32(3), snap.Skeletons[0].GloveID)
	assert.Equal(t, uint32(4), snap.Skeletons[0].NodeCount)
}

// A frame where every skeleton failed is still published: the consumer can
// then tell "source reported nothing" (claimed, zero skeletons) from "no
// new data" (slot empty).
func TestAssembleEmptyFrameStillPublished(t *testing.T) {
	muteLogs(t)
	src := newStubSource(2)
	src.failInfo[0] = true
	slot := NewLatestFrameSlot()
	asm := NewFrameAssembler(src, slot)

	asm.OnSkeletonStream(manus.SkeletonStreamInfo{SkeletonCount: 1, PublishTime: time.Now()})

	snap := slot.Claim()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Skeletons)
	assert.Nil(t, slot.Claim(), "slot must be empty after the claim")
}

func TestAssembleSequenceNumbersIncrease(t *testing.T) {
	src := newStubSource(2)
	slot := NewLatestFrameSlot()
	asm := NewFrameAssembler(src, slot)

	for i := 0; i < 3; i++ {
		asm.OnSkeletonStream(manus.SkeletonStreamInfo{SkeletonCount: 1, PublishTime: time.Now()})
	}
	snap := slot.Claim()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(3), snap.Seq, "only the latest frame survives two unclaimed publishes")
	assert.Equal(t, uint64(2), slot.Stats().Overwritten)
}
