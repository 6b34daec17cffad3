package manus

import "context"

// StreamCallback receives per-frame stream metadata on the source's callback
// thread. Implementations must query skeleton data from the source before
// returning; the source does not guarantee the referenced data remains valid
// afterwards.
type StreamCallback func(info SkeletonStreamInfo)

// Source is the motion-capture collaborator the bridge talks to. Exactly one
// stream callback may be registered, and registration must happen before the
// source starts delivering frames.
//
// SkeletonInfo and SkeletonNodes are only meaningful while a stream callback
// is executing: they address skeletons of the frame currently being
// delivered. NodeInfos may be called from the consumer thread at any time
// after connecting.
type Source interface {
	// Initialize prepares the source (SDK setup, coordinate system). Must be
	// called before anything else.
	Initialize() error

	// RegisterStreamCallback registers the single frame callback.
	RegisterStreamCallback(cb StreamCallback) error

	// Connect performs one connection attempt to the configured host.
	Connect(ctx context.Context) error

	// SkeletonInfo returns glove ID and node count for the skeleton at the
	// given index in the frame being delivered.
	SkeletonInfo(index uint32) (SkeletonInfo, error)

	// SkeletonNodes fills out with node data for the skeleton at the given
	// index. len(out) must equal the declared node count.
	SkeletonNodes(index uint32, out []SkeletonNode) error

	// NodeInfos returns ordered (node ID, side) metadata for a glove. The
	// returned slice has exactly nodeCount entries on success.
	NodeInfos(gloveID, nodeCount uint32) ([]NodeInfo, error)

	// SetHandMotion selects the hand motion mode of the raw skeleton stream.
	SetHandMotion(mode HandMotion) error

	// Shutdown closes the connection and releases source resources.
	Shutdown() error
}
