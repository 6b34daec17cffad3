package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/mocap.bridge/internal/bridge"
)

func TestPollerLatestIsACopy(t *testing.T) {
	p := &poller{}

	buf := []bridge.FlatPoseRecord{
		{GloveID: 1, NodeID: 100},
		{GloveID: 1, NodeID: 101},
	}
	p.setLatest(buf)

	// Mutating the poll buffer afterwards must not leak into what the
	// HTTP API serves.
	buf[0].NodeID = 999

	got := p.LatestPoses()
	want := []bridge.FlatPoseRecord{
		{GloveID: 1, NodeID: 100},
		{GloveID: 1, NodeID: 101},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("latest poses mismatch (-want +got):\n%s", diff)
	}

	// And mutating the returned slice must not corrupt the retained copy.
	got[1].GloveID = 7
	assert.Equal(t, uint32(1), p.LatestPoses()[1].GloveID)
}

func TestPollerLatestEmptyByDefault(t *testing.T) {
	p := &poller{}
	assert.Empty(t, p.LatestPoses())
}
