// Command pose-report summarises a recorded session: per-node position
// statistics and publish-interval timing from the sqlite recording, plus an
// HTML chart of one node's position trace.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/mocap.bridge/internal/recorder"
)

var (
	dbFile    = flag.String("db", "poses.db", "Recording database path")
	sessionID = flag.String("session", "", "Session ID (default: most recent)")
	gloveID   = flag.Uint("glove", 0, "Glove ID to chart (default: first seen)")
	nodeID    = flag.Uint("node", 0, "Node ID to chart (default: first of the glove)")
	outFile   = flag.String("out", "pose-report.html", "Output HTML path")
)

func main() {
	flag.Parse()

	store, err := recorder.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open recording database: %v", err)
	}
	defer store.Close()

	session := *sessionID
	if session == "" {
		latest, err := store.LatestSession()
		if err != nil {
			log.Fatalf("no session to report on: %v", err)
		}
		session = latest.SessionID
	}

	rows, err := store.Poses(session)
	if err != nil {
		log.Fatalf("failed to load poses: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("session %s holds no poses", session)
	}

	glove := uint32(*gloveID)
	if glove == 0 {
		glove = rows[0].GloveID
	}
	node := uint32(*nodeID)
	if node == 0 {
		node = firstNodeOf(rows, glove)
	}

	trace := traceOf(rows, glove, node)
	if len(trace) == 0 {
		log.Fatalf("no samples for glove %d node %d in session %s", glove, node, session)
	}

	printSummary(os.Stdout, session, glove, node, rows, trace)

	if err := renderChart(session, glove, node, trace); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d samples)", *outFile, len(trace))
}

func firstNodeOf(rows []recorder.PoseRow, glove uint32) uint32 {
	for _, r := range rows {
		if r.GloveID == glove {
			return r.NodeID
		}
	}
	return 0
}

func traceOf(rows []recorder.PoseRow, glove, node uint32) []recorder.PoseRow {
	var out []recorder.PoseRow
	for _, r := range rows {
		if r.GloveID == glove && r.NodeID == node {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PollSeq < out[j].PollSeq })
	return out
}

func printSummary(w *os.File, session string, glove, node uint32, rows, trace []recorder.PoseRow) {
	px := make([]float64, len(trace))
	py := make([]float64, len(trace))
	pz := make([]float64, len(trace))
	for i, r := range trace {
		px[i], py[i], pz[i] = r.PX, r.PY, r.PZ
	}

	fmt.Fprintf(w, "session %s: %d records, %d samples for glove %d node %d\n",
		session, len(rows), len(trace), glove, node)
	fmt.Fprintf(w, "position mean   (%.4f, %.4f, %.4f)\n",
		stat.Mean(px, nil), stat.Mean(py, nil), stat.Mean(pz, nil))
	fmt.Fprintf(w, "position stddev (%.4f, %.4f, %.4f)\n",
		stat.StdDev(px, nil), stat.StdDev(py, nil), stat.StdDev(pz, nil))

	if intervals := publishIntervals(trace); len(intervals) > 0 {
		fmt.Fprintf(w, "publish interval mean %.2fms stddev %.2fms over %d gaps\n",
			stat.Mean(intervals, nil), stat.StdDev(intervals, nil), len(intervals))
	}
}

// publishIntervals returns the gaps between consecutive publish times in
// milliseconds.
func publishIntervals(trace []recorder.PoseRow) []float64 {
	var out []float64
	for i := 1; i < len(trace); i++ {
		delta := trace[i].PublishTimeNs - trace[i-1].PublishTimeNs
		if delta > 0 {
			out = append(out, float64(delta)/1e6)
		}
	}
	return out
}

func renderChart(session string, glove, node uint32, trace []recorder.PoseRow) error {
	xs := make([]uint64, len(trace))
	seriesX := make([]opts.LineData, len(trace))
	seriesY := make([]opts.LineData, len(trace))
	seriesZ := make([]opts.LineData, len(trace))
	for i, r := range trace {
		xs[i] = r.PollSeq
		seriesX[i] = opts.LineData{Value: r.PX}
		seriesY[i] = opts.LineData{Value: r.PY}
		seriesZ[i] = opts.LineData{Value: r.PZ}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pose Report", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Glove %d node %d position", glove, node),
			Subtitle: fmt.Sprintf("session=%s samples=%d", session, len(trace)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "poll"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "meters"}),
	)
	line.SetXAxis(xs).
		AddSeries("x", seriesX).
		AddSeries("y", seriesY).
		AddSeries("z", seriesZ)

	f, err := os.Create(*outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}
