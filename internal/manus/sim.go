package manus

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"
)

// SimConfig parameterises the simulated glove source.
type SimConfig struct {
	Gloves        int     // number of tracked gloves
	NodesPerGlove int     // joints per glove skeleton
	FrameRate     float64 // frames per second delivered by Run
	Host          string  // pretend core host, used only for log/error text
	ConnectAfter  int     // number of Connect attempts that fail before one succeeds
}

// SimSource is a synthetic motion-capture source. It fabricates smoothly
// animated glove skeletons and delivers them through the registered stream
// callback, either on a fixed cadence via Run or on demand via EmitFrame.
//
// The fault-injection fields let tests exercise the bridge's partial
// failure paths without a vendor SDK. They must be set before frames are
// emitted.
type SimSource struct {
	cfg SimConfig

	mu          sync.Mutex
	cb          StreamCallback
	initialized bool
	connected   bool
	attempts    int
	motion      HandMotion
	start       time.Time
	frameSeq    uint64

	// staged frame data, addressed by the skeleton queries while the
	// callback runs
	infos []SkeletonInfo
	nodes [][]SkeletonNode

	// FailInfoIndex and FailNodesIndex make the corresponding per-skeleton
	// query fail for that skeleton index within every frame; -1 disables.
	FailInfoIndex  int
	FailNodesIndex int
	// FailMetadataFor makes NodeInfos fail for the listed glove IDs.
	FailMetadataFor map[uint32]bool
}

// Ensure SimSource satisfies the source surface the bridge consumes.
var _ Source = (*SimSource)(nil)

// NewSimSource creates a simulated source. Zero config fields get defaults:
// 2 gloves, 25 nodes each, 120 frames per second.
func NewSimSource(cfg SimConfig) *SimSource {
	if cfg.Gloves <= 0 {
		cfg.Gloves = 2
	}
	if cfg.NodesPerGlove <= 0 {
		cfg.NodesPerGlove = 25
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 120
	}
	if cfg.Host == "" {
		cfg.Host = "sim-core"
	}
	return &SimSource{
		cfg:            cfg,
		start:          time.Now(),
		FailInfoIndex:  -1,
		FailNodesIndex: -1,
	}
}

func (s *SimSource) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

func (s *SimSource) RegisterStreamCallback(cb StreamCallback) error {
	if cb == nil {
		return fmt.Errorf("nil stream callback")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cb != nil {
		return fmt.Errorf("stream callback already registered")
	}
	s.cb = cb
	return nil
}

func (s *SimSource) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("source not initialized")
	}
	s.attempts++
	if s.attempts <= s.cfg.ConnectAfter {
		return fmt.Errorf("core host %q not reachable", s.cfg.Host)
	}
	s.connected = true
	return nil
}

func (s *SimSource) SetHandMotion(mode HandMotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return fmt.Errorf("not connected")
	}
	s.motion = mode
	return nil
}

func (s *SimSource) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Run delivers frames at the configured rate until the context is cancelled.
func (s *SimSource) Run(ctx context.Context) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return fmt.Errorf("not connected")
	}

	interval := time.Duration(float64(time.Second) / s.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.EmitFrame()
		}
	}
}

// EmitFrame synthesises one frame and invokes the stream callback
// synchronously, the way an SDK delivers on its own thread. Exported so
// tests can drive frames deterministically without Run's ticker.
func (s *SimSource) EmitFrame() {
	s.mu.Lock()
	cb := s.cb
	if cb == nil {
		s.mu.Unlock()
		return
	}
	s.frameSeq++
	elapsed := time.Since(s.start).Seconds()
	s.stageFrameLocked(elapsed)
	info := SkeletonStreamInfo{
		SkeletonCount: uint32(len(s.infos)),
		PublishTime:   time.Now(),
	}
	s.mu.Unlock()

	cb(info)
}

// stageFrameLocked rebuilds the staged skeleton data for the current frame.
func (s *SimSource) stageFrameLocked(elapsed float64) {
	s.infos = s.infos[:0]
	s.nodes = s.nodes[:0]
	for g := 0; g < s.cfg.Gloves; g++ {
		gloveID := uint32(g + 1)
		nodes := make([]SkeletonNode, s.cfg.NodesPerGlove)
		baseX := 0.3 * float64(1-2*(g%2)) // left gloves mirror right ones
		for j := range nodes {
			curl := 0.35 * math.Sin(2*math.Pi*0.5*elapsed+0.3*float64(j))
			yaw := 0.2 * math.Sin(2*math.Pi*0.25*elapsed+float64(g))
			q := quat.Mul(axisAngle(0, 0, 1, yaw), axisAngle(1, 0, 0, curl))
			nodes[j] = SkeletonNode{
				Position: Vec3{
					X: float32(baseX + 0.01*float64(j)),
					Y: float32(0.1 * math.Sin(curl+float64(j))),
					Z: float32(0.8 + 0.002*float64(j)),
				},
				Rotation: Quat{
					X: float32(q.Imag),
					Y: float32(q.Jmag),
					Z: float32(q.Kmag),
					W: float32(q.Real),
				},
			}
		}
		s.infos = append(s.infos, SkeletonInfo{GloveID: gloveID, NodeCount: uint32(len(nodes))})
		s.nodes = append(s.nodes, nodes)
	}
}

// axisAngle builds a unit quaternion rotating by angle radians about the
// given axis. The axis must already be normalised.
func axisAngle(x, y, z, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: x * s, Jmag: y * s, Kmag: z * s}
}

func (s *SimSource) SkeletonInfo(index uint32) (SkeletonInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(index) == s.FailInfoIndex {
		return SkeletonInfo{}, fmt.Errorf("skeleton info unavailable for index %d", index)
	}
	if int(index) >= len(s.infos) {
		return SkeletonInfo{}, fmt.Errorf("skeleton index %d out of range (%d staged)", index, len(s.infos))
	}
	return s.infos[index], nil
}

func (s *SimSource) SkeletonNodes(index uint32, out []SkeletonNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(index) == s.FailNodesIndex {
		return fmt.Errorf("skeleton data unavailable for index %d", index)
	}
	if int(index) >= len(s.nodes) {
		return fmt.Errorf("skeleton index %d out of range (%d staged)", index, len(s.nodes))
	}
	staged := s.nodes[index]
	if len(out) != len(staged) {
		return fmt.Errorf("node count mismatch for skeleton %d: want %d, buffer holds %d", index, len(staged), len(out))
	}
	copy(out, staged)
	return nil
}

func (s *SimSource) NodeInfos(gloveID, nodeCount uint32) ([]NodeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMetadataFor[gloveID] {
		return nil, fmt.Errorf("node metadata unavailable for glove %d", gloveID)
	}
	if gloveID == 0 || int(gloveID) > s.cfg.Gloves {
		return nil, fmt.Errorf("unknown glove %d", gloveID)
	}
	if int(nodeCount) != s.cfg.NodesPerGlove {
		return nil, fmt.Errorf("node count mismatch for glove %d: want %d, got %d", gloveID, s.cfg.NodesPerGlove, nodeCount)
	}
	side := SideRight
	if gloveID%2 == 1 {
		side = SideLeft
	}
	infos := make([]NodeInfo, nodeCount)
	for j := range infos {
		infos[j] = NodeInfo{NodeID: gloveID*1000 + uint32(j), Side: side}
	}
	return infos, nil
}
