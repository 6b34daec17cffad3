// Command mocap-bridge runs the bridge as a standalone daemon against the
// simulated glove source: it polls the bridge on a fixed tick, optionally
// records flattened poses to sqlite, and serves a small debug HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/mocap.bridge/api"
	"github.com/banshee-data/mocap.bridge/internal/bridge"
	"github.com/banshee-data/mocap.bridge/internal/config"
	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/recorder"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "poses.db", "Recording database path")
	record     = flag.Bool("record", false, "Record flattened poses to the database")
	configPath = flag.String("config", "", "Bridge config JSON path")
	tick       = flag.Duration("tick", 8*time.Millisecond, "Poll interval")
)

// poller is the consumer side of the bridge: it owns the poll loop and
// retains a copy of the last successful poll for the HTTP API, so serving
// requests never touches the slot.
type poller struct {
	b *bridge.Bridge

	mu     sync.Mutex
	latest []bridge.FlatPoseRecord
}

func (p *poller) setLatest(recs []bridge.FlatPoseRecord) {
	cp := make([]bridge.FlatPoseRecord, len(recs))
	copy(cp, recs)
	p.mu.Lock()
	p.latest = cp
	p.mu.Unlock()
}

func (p *poller) LatestPoses() []bridge.FlatPoseRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]bridge.FlatPoseRecord, len(p.latest))
	copy(cp, p.latest)
	return cp
}

func (p *poller) SlotStats() bridge.SlotStats { return p.b.SlotStats() }
func (p *poller) Truncations() uint64         { return p.b.Truncations() }

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := manus.NewSimSource(manus.SimConfig{
		Gloves:        cfg.GetSimGloves(),
		NodesPerGlove: cfg.GetSimNodesPerGlove(),
		FrameRate:     cfg.GetSimFrameRate(),
		Host:          cfg.GetHost(),
	})

	b, err := bridge.Create(ctx, src, bridge.Config{
		Retry: bridge.RetryPolicy{
			Interval:    cfg.GetRetryInterval(),
			MaxAttempts: cfg.GetMaxConnectAttempts(),
		},
		HandMotion: cfg.GetHandMotion(),
	})
	if err != nil {
		log.Fatalf("failed to create bridge: %v", err)
	}

	var store *recorder.PoseStore
	var sessionID string
	if *record {
		store, err = recorder.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open recording database: %v", err)
		}
		defer store.Close()
		sessionID, err = store.CreateSession("sim")
		if err != nil {
			log.Fatalf("failed to create recording session: %v", err)
		}
		log.Printf("recording to %s, session %s", *dbFile, sessionID)
	}

	p := &poller{b: b}

	var wg sync.WaitGroup

	// source delivery goroutine, standing in for the SDK callback thread
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := src.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("source stopped: %v", err)
		}
		log.Print("source routine terminated")
	}()

	// consumer poll loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]bridge.FlatPoseRecord, cfg.GetBufferCapacity())
		ticker := time.NewTicker(*tick)
		defer ticker.Stop()

		var pollSeq uint64
		for {
			select {
			case <-ctx.Done():
				log.Print("poll routine terminated")
				return
			case <-ticker.C:
				n, status := b.Poll(buf)
				if status != bridge.StatusOK || n == 0 {
					continue
				}
				pollSeq++
				p.setLatest(buf[:n])
				if store != nil {
					if err := store.RecordPoll(sessionID, pollSeq, b.LastPublishTime(), buf[:n]); err != nil {
						log.Printf("failed to record poll: %v", err)
					}
				}
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		var sessions api.SessionStore
		if store != nil {
			sessions = store
		}
		mux := http.NewServeMux()
		apiMux := api.NewServer(p, sessions).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	if err := b.Shutdown(); err != nil {
		log.Printf("bridge shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
