// Command bridge-lib builds the bridge as a c-shared library consumed over
// ctypes from the simulation side:
//
//	go build -buildmode=c-shared -o libmocapbridge.so ./cmd/bridge-lib
//
// The exported surface mirrors the reference client: bridge_create returns
// an opaque non-zero handle or 0 on failure, poll fills a caller-owned
// buffer of manus_node_pose records, shutdown tears the instance down.
// Configuration is read from the JSON file named by MOCAP_BRIDGE_CONFIG;
// host selection is a config value, never a prompt.
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

import (
	"context"
	"os"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/banshee-data/mocap.bridge/internal/bridge"
	"github.com/banshee-data/mocap.bridge/internal/config"
	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
)

const (
	statusOK             = 0
	statusNotInitialized = -1
	statusNoData         = -2
	statusInvalidArgs    = -3
)

var (
	mu         sync.Mutex
	handle     cgo.Handle
	stopSource context.CancelFunc

	// scratch buffer reused across polls; poll is single-consumer by
	// contract, the mutex only guards against misuse.
	scratch []bridge.FlatPoseRecord
)

//export bridge_create
func bridge_create() C.uintptr_t {
	mu.Lock()
	defer mu.Unlock()

	cfg, err := config.Load(os.Getenv("MOCAP_BRIDGE_CONFIG"))
	if err != nil {
		monitoring.Logf("bridge-lib: config load failed: %v", err)
		return 0
	}

	src := manus.NewSimSource(manus.SimConfig{
		Gloves:        cfg.GetSimGloves(),
		NodesPerGlove: cfg.GetSimNodesPerGlove(),
		FrameRate:     cfg.GetSimFrameRate(),
		Host:          cfg.GetHost(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	b, err := bridge.Open(ctx, src, bridge.Config{
		Retry: bridge.RetryPolicy{
			Interval:    cfg.GetRetryInterval(),
			MaxAttempts: cfg.GetMaxConnectAttempts(),
		},
		HandMotion: cfg.GetHandMotion(),
	})
	if err != nil {
		cancel()
		monitoring.Logf("bridge-lib: create failed: %v", err)
		return 0
	}

	go func() {
		if err := src.Run(ctx); err != nil && err != context.Canceled {
			monitoring.Logf("bridge-lib: source stopped: %v", err)
		}
	}()

	stopSource = cancel
	handle = cgo.NewHandle(b)
	return C.uintptr_t(handle)
}

//export poll
func poll(buffer *C.manus_node_pose, bufferSize C.uint32_t, count *C.uint32_t) C.int {
	b := bridge.Instance()
	if b == nil {
		return statusNotInitialized
	}
	if buffer == nil || count == nil {
		return statusInvalidArgs
	}

	mu.Lock()
	defer mu.Unlock()

	if cap(scratch) < int(bufferSize) {
		scratch = make([]bridge.FlatPoseRecord, int(bufferSize))
	}
	out := scratch[:int(bufferSize)]

	n, _ := b.Poll(out)
	*count = C.uint32_t(n)
	if n == 0 {
		// The reference ABI reports -2 whenever nothing was written,
		// whether the slot was empty or the frame flattened to nothing.
		return statusNoData
	}

	cbuf := unsafe.Slice(buffer, int(bufferSize))
	for i := 0; i < n; i++ {
		rec := &out[i]
		cbuf[i].glove_id = C.uint32_t(rec.GloveID)
		cbuf[i].node_id = C.uint32_t(rec.NodeID)
		cbuf[i].side = C.uint32_t(rec.Side)
		cbuf[i].position[0] = C.float(rec.Position.X)
		cbuf[i].position[1] = C.float(rec.Position.Y)
		cbuf[i].position[2] = C.float(rec.Position.Z)
		cbuf[i].orientation[0] = C.float(rec.Orientation.X)
		cbuf[i].orientation[1] = C.float(rec.Orientation.Y)
		cbuf[i].orientation[2] = C.float(rec.Orientation.Z)
		cbuf[i].orientation[3] = C.float(rec.Orientation.W)
	}
	return statusOK
}

//export shutdown
func shutdown() C.int {
	mu.Lock()
	defer mu.Unlock()

	if stopSource != nil {
		stopSource()
		stopSource = nil
	}
	err := bridge.Close()
	if handle != 0 {
		handle.Delete()
		handle = 0
	}
	if err != nil {
		return statusNotInitialized
	}
	return statusOK
}

func main() {}
