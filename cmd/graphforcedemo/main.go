// Command graphforcedemo drives a full simulation.Pipeline tick loop
// against a synthetic hierarchical graph, selecting a layout algorithm
// by id from algorithm.Default, and writes the settled layout as a PNG
// snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	_ "github.com/gogpu/graphforce/algorithm/barneshut"
	"github.com/gogpu/graphforce/algorithm/community"
	_ "github.com/gogpu/graphforce/algorithm/density"
	_ "github.com/gogpu/graphforce/algorithm/direct"
	"github.com/gogpu/graphforce/algorithm/forceatlas2"
	"github.com/gogpu/graphforce/algorithm/linlog"
	"github.com/gogpu/graphforce/algorithm/relativity"
	_ "github.com/gogpu/graphforce/algorithm/tfdp"
	"github.com/gogpu/graphforce/controller"
	"github.com/gogpu/graphforce/csr"
	"github.com/gogpu/graphforce/graph"
	"github.com/gogpu/graphforce/simulation"
)

// dialGPU must be supplied by the embedding application before this
// binary can run: graphforcedemo is wiring, not a GPU backend, and the
// module as a whole expects the host to own the GPU device and hand it
// in (the same model gpuctx follows). A real host wires this to whatever
// produced its hal.Device/hal.Queue pair (a gogpu.App, a test harness,
// a platform-specific adapter request).
var dialGPU = func() (hal.Device, hal.Queue, func(), error) {
	return nil, nil, nil, fmt.Errorf("graphforcedemo: dialGPU is unset; wire it to your host's hal.Device/hal.Queue pair before running")
}

func main() {
	var (
		algoID    = flag.String("algorithm", forceatlas2.ID, "layout algorithm id (see algorithm.Default)")
		nodes     = flag.Int("nodes", 200, "synthetic node count")
		extra     = flag.Int("extra-edges", 150, "random edges added on top of the spanning tree")
		ticks     = flag.Int("ticks", 300, "simulation ticks to run")
		seed      = flag.Int64("seed", 1, "random graph seed")
		output    = flag.String("output", "layout.png", "output PNG snapshot path")
		imageDim  = flag.Int("image-size", 1024, "output image width/height in pixels")
		verbosity = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	configureLogging(*verbosity)
	log := graphforce.Logger()

	if *nodes <= 0 {
		log.Error("nodes must be positive", "nodes", *nodes)
		os.Exit(1)
	}

	g, parentOf := buildSyntheticGraph(*nodes, *extra, *seed)
	log.Info("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	algo, err := algorithm.Default.New(*algoID)
	if err != nil {
		log.Error("select algorithm", "id", *algoID, "err", err)
		os.Exit(1)
	}
	log.Info("algorithm selected", "descriptor", algo.Descriptor())

	device, queue, closeGPU, err := dialGPU()
	if err != nil {
		log.Error("acquire GPU device", "err", err)
		os.Exit(1)
	}
	defer closeGPU()

	if err := run(device, queue, algo, g, parentOf, *ticks, *output, uint32(*imageDim)); err != nil {
		log.Error("run", "err", err)
		os.Exit(1)
	}
}

func configureLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	graphforce.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func run(device hal.Device, queue hal.Queue, algo algorithm.Algorithm, g *graph.Graph, parentOf []uint32, ticks int, output string, imageDim uint32) error {
	log := graphforce.Logger()

	nodeCount := g.NodeCount()
	edgeCount := g.EdgeCount()

	pipeline, err := simulation.New(device, queue, nodeCount, edgeCount)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer pipeline.Destroy()

	if err := algo.CreatePipelines(device); err != nil {
		return fmt.Errorf("algorithm create pipelines: %w", err)
	}
	defer algo.Destroy()

	if err := algo.CreateBuffers(nodeCount); err != nil {
		return fmt.Errorf("algorithm create buffers: %w", err)
	}

	if err := pipeline.LoadPositions(g.Positions()); err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	src, tgt, weight := g.EdgeArrays()
	if err := pipeline.LoadEdges(src, tgt, weight); err != nil {
		return fmt.Errorf("load edges: %w", err)
	}
	depths := make([]uint32, nodeCount)
	pinned := make([]bool, nodeCount)
	for i, n := range g.Nodes {
		depths[i] = n.Depth
		pinned[i] = n.Pinned
	}
	if err := pipeline.LoadNodeAttributes(depths, pinned); err != nil {
		return fmt.Errorf("load node attributes: %w", err)
	}

	wireAlgorithmAttributes(algo, g, parentOf)

	cfg := simulation.DefaultConfig()
	minX, minY, maxX, maxY, hasBounds := g.Bounds()

	ctrl := controller.New(controller.DefaultCooling())
	unsubscribe := ctrl.Events().Subscribe(func(ev controller.Event) {
		log.Debug("controller event", "kind", ev.Kind, "alpha", ev.Alpha, "ticks", ev.TickCount)
	})
	defer unsubscribe()
	ctrl.Start()
	defer ctrl.Stop()

	for t := 0; t < ticks; t++ {
		alpha := float32(ctrl.Tick())

		renderCtx := pipeline.RenderContext(nodeCount, edgeCount, minX, minY, maxX, maxY, hasBounds)
		if err := algo.CreateBindGroups(renderCtx, pipeline.Shared()); err != nil {
			return fmt.Errorf("tick %d: algorithm create bind groups: %w", t, err)
		}
		if err := algo.UpdateUniforms(renderCtx); err != nil {
			return fmt.Errorf("tick %d: algorithm update uniforms: %w", t, err)
		}
		if err := pipeline.UpdateUniforms(nodeCount, edgeCount, alpha, cfg); err != nil {
			return fmt.Errorf("tick %d: pipeline update uniforms: %w", t, err)
		}

		encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "graphforcedemo_tick"})
		if err != nil {
			return fmt.Errorf("tick %d: create command encoder: %w", t, err)
		}

		tickHandle, err := pipeline.RecordTick(encoder, nodeCount, edgeCount, algo)
		if err != nil {
			return fmt.Errorf("tick %d: record tick: %w", t, err)
		}

		var positions [][2]float32
		last := t == ticks-1
		if last {
			positions = make([][2]float32, nodeCount)
			if err := pipeline.ScheduleReadback(encoder, nodeCount); err != nil {
				return fmt.Errorf("tick %d: schedule readback: %w", t, err)
			}
		}

		if err := pipeline.Submit(encoder, tickHandle); err != nil {
			return fmt.Errorf("tick %d: submit: %w", t, err)
		}

		if last {
			if err := pipeline.AwaitReadback(context.Background(), positions); err != nil {
				return fmt.Errorf("tick %d: await readback: %w", t, err)
			}
			if err := renderSnapshot(positions, g, output, imageDim); err != nil {
				return fmt.Errorf("render snapshot: %w", err)
			}
		}

		if t%50 == 0 {
			log.Debug("tick complete", "tick", t, "alpha", alpha)
		}
	}

	log.Info("layout settled", "ticks", ticks, "output", output)
	return nil
}

// wireAlgorithmAttributes calls each algorithm's package-specific
// deferred-upload setters, which are not part of the shared Algorithm
// interface since they apply to a strict subset of algorithms.
func wireAlgorithmAttributes(algo algorithm.Algorithm, g *graph.Graph, parentOf []uint32) {
	log := graphforce.Logger()
	switch a := algo.(type) {
	case *forceatlas2.Algorithm:
		a.SetDegrees(g.Degrees())
	case *linlog.Algorithm:
		a.SetDegrees(g.Degrees())
	case *relativity.Algorithm:
		pair, err := buildHierarchy(g.NodeCount(), parentOf)
		if err != nil {
			log.Warn("build relativity hierarchy", "err", err)
			return
		}
		a.SetHierarchy(pair)
		a.SetWellRadii(g.Radii())
	case *community.Algorithm:
		a.SetDegrees(g.Degrees())
		a.SetCommunities(g.Communities())
	}
}

// buildHierarchy turns the synthetic graph's spanning-tree parent
// relation into the CSR pair algorithm/relativity binds against:
// forward edges run parent-to-child, inverse edges child-to-parent.
func buildHierarchy(nodeCount uint32, parentOf []uint32) (csr.Pair, error) {
	src := make([]uint32, 0, nodeCount)
	dst := make([]uint32, 0, nodeCount)
	for child := uint32(1); child < nodeCount; child++ {
		src = append(src, parentOf[child])
		dst = append(dst, child)
	}
	return csr.Build(nodeCount, src, dst)
}

// buildSyntheticGraph generates a random spanning tree (giving every
// node a well-defined depth and parent for algorithm/relativity) plus a
// scattering of extra random edges, and returns the per-node parent
// array alongside the graph (parentOf[0] is unused; node 0 is the
// root).
func buildSyntheticGraph(nodeCount, extraEdges int, seed int64) (*graph.Graph, []uint32) {
	rng := rand.New(rand.NewSource(seed))
	g := graph.New(nodeCount, extraEdges+nodeCount)
	parentOf := make([]uint32, nodeCount)
	depth := make([]uint32, nodeCount)

	for i := 0; i < nodeCount; i++ {
		angle := rng.Float64() * 2 * math.Pi
		radius := rng.Float64() * 50
		g.AddNode(float32(radius*math.Cos(angle)), float32(radius*math.Sin(angle)))
	}

	for i := 1; i < nodeCount; i++ {
		p := uint32(rng.Intn(i))
		parentOf[i] = p
		depth[i] = depth[p] + 1
		_ = g.AddEdge(p, uint32(i), 1.0)
	}
	for i := range g.Nodes {
		g.Nodes[i].Depth = depth[i]
	}

	const communityCount = 8
	for i := range g.Nodes {
		g.Nodes[i].Community = uint32(i % communityCount)
	}

	for e := 0; e < extraEdges; e++ {
		a := uint32(rng.Intn(nodeCount))
		b := uint32(rng.Intn(nodeCount))
		if a == b {
			continue
		}
		_ = g.AddEdge(a, b, 1.0)
	}

	return g, parentOf
}

// renderSnapshot rasterizes the final node positions as filled circles
// joined by edge lines onto a square canvas, normalizing the
// simulation's coordinate space to image pixels with a fixed margin.
// This follows algorithm/density's own DumpGridPNG convention of a
// host-side, off-tick debug render using only image/png, never gg's
// higher-level vector rasterizer.
func renderSnapshot(positions [][2]float32, g *graph.Graph, output string, dim uint32) error {
	minX, minY, maxX, maxY := positions[0][0], positions[0][1], positions[0][0], positions[0][1]
	for _, p := range positions {
		if p[0] < minX {
			minX = p[0]
		}
		if p[1] < minY {
			minY = p[1]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	const margin = 0.08
	size := float64(dim)
	scale := math.Min(size*(1-2*margin)/float64(spanX), size*(1-2*margin)/float64(spanY))

	img := image.NewRGBA(image.Rect(0, 0, int(dim), int(dim)))
	background := color.RGBA{R: 20, G: 23, B: 31, A: 255}
	for y := 0; y < int(dim); y++ {
		for x := 0; x < int(dim); x++ {
			img.SetRGBA(x, y, background)
		}
	}

	toPixel := func(p [2]float32) (int, int) {
		x := int((float64(p[0]-minX))*scale + size*margin)
		y := int((float64(p[1]-minY))*scale + size*margin)
		return x, y
	}

	edgeColor := color.RGBA{R: 102, G: 115, B: 140, A: 160}
	for _, e := range g.Edges {
		x1, y1 := toPixel(positions[e.Source])
		x2, y2 := toPixel(positions[e.Target])
		drawLine(img, x1, y1, x2, y2, edgeColor)
	}

	for i, p := range positions {
		x, y := toPixel(p)
		hue := float64(g.Nodes[i].Community%8) / 8
		drawFilledCircle(img, x, y, 4, hslToRGBA(hue, 0.65, 0.6))
	}

	f, err := os.Create(output) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}

// drawLine plots a line with Bresenham's algorithm, sufficient for a
// debug edge overlay at demo resolutions.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawFilledCircle plots a filled disc via a bounding-box distance test,
// fine for the small radii a node marker needs.
func drawFilledCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// hslToRGBA converts hue in [0,1), fixed saturation/lightness to an
// opaque color, used to give each synthetic community a distinct hue.
func hslToRGBA(h, s, l float64) color.RGBA {
	if s == 0 {
		v := uint8(l * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r := hueToRGB(p, q, h+1.0/3.0)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3.0)
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*6*(2.0/3.0-t)
	default:
		return p
	}
}
