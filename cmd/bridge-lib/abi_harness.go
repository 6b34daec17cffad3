package main

/*
#include <stdint.h>

typedef struct manus_node_pose {
	uint32_t glove_id;
	uint32_t node_id;
	uint32_t side;
	float    position[3];
	float    orientation[4];
} manus_node_pose;
*/
import "C"

// Test plumbing for the exported ABI. Cgo is not available in _test.go
// files, so the C-typed calls live here and hand plain Go values back to
// the tests.

// cPoseRecord mirrors manus_node_pose field for field so tests can assert
// on exactly what crossed the boundary.
type cPoseRecord struct {
	GloveID     uint32
	NodeID      uint32
	Side        uint32
	Position    [3]float32
	Orientation [4]float32
}

// pollViaABI calls poll with a C buffer of the given capacity and converts
// the written records back into Go values.
func pollViaABI(capacity int) (recs []cPoseRecord, count uint32, status int) {
	buf := make([]C.manus_node_pose, capacity)
	var c C.uint32_t
	st := poll(&buf[0], C.uint32_t(capacity), &c)
	count = uint32(c)
	recs = make([]cPoseRecord, count)
	for i := range recs {
		p := &buf[i]
		recs[i] = cPoseRecord{
			GloveID: uint32(p.glove_id),
			NodeID:  uint32(p.node_id),
			Side:    uint32(p.side),
			Position: [3]float32{
				float32(p.position[0]),
				float32(p.position[1]),
				float32(p.position[2]),
			},
			Orientation: [4]float32{
				float32(p.orientation[0]),
				float32(p.orientation[1]),
				float32(p.orientation[2]),
				float32(p.orientation[3]),
			},
		}
	}
	return recs, count, int(st)
}

func pollNilBufferViaABI() int {
	var c C.uint32_t
	return int(poll(nil, 8, &c))
}

func pollNilCountViaABI() int {
	buf := make([]C.manus_node_pose, 8)
	return int(poll(&buf[0], 8, nil))
}

func createViaABI() uintptr { return uintptr(bridge_create()) }

func shutdownViaABI() int { return int(shutdown()) }
