package cmd

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/achilleasa/starmap/bvh"
	"github.com/achilleasa/starmap/starmap"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

type cullFrame struct {
	frame        int
	yaw          float32
	visible      int
	sweepTime    time.Duration
	staticCount  int
	staticTime   time.Duration
	countsDiffer bool
}

// Cull sweeps a camera around the center of a generated starmap and reports
// how many systems each frame would draw.
func Cull(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	m, err := starmap.Generate(cfg)
	if err != nil {
		return err
	}

	var static *bvh.StaticGraph[uuid.UUID]
	if ctx.Bool("static") {
		strategy, err := splitStrategy(ctx.String("split"))
		if err != nil {
			return err
		}
		static, err = m.BuildStatic(bvh.StaticOptions{
			ObjectsPerNode: ctx.Int("leaf-size"),
			Strategy:       strategy,
		})
		if err != nil {
			return err
		}
		displayIndexStats(
			namedStats{string(cfg.Index), m.Index.Stats()},
			namedStats{"static", static.Stats()},
		)
	}

	camera := starmap.NewCamera(cfg.Bounds().Center(), float32(ctx.Float64("far")))
	camera.FOV = degToRad(ctx.Float64("fov"))
	camera.Pitch = degToRad(ctx.Float64("pitch"))
	sweep, err := starmap.NewSweep(
		camera,
		degToRad(ctx.Float64("from-yaw")),
		degToRad(ctx.Float64("to-yaw")),
		ctx.Int("frames"),
		ctx.String("easing"),
	)
	if err != nil {
		return err
	}

	var frames []cullFrame
	for {
		camera, ok := sweep.Next()
		if !ok {
			break
		}

		frustum := camera.Frustum()
		start := time.Now()
		objects := m.BuildObjectList(frustum, camera.Position)
		frame := cullFrame{
			frame:     sweep.Frame(),
			yaw:       camera.Yaw,
			visible:   len(objects),
			sweepTime: time.Since(start),
		}

		if static != nil {
			start = time.Now()
			frame.staticCount = len(starmap.CollectVisible(static.FrustumSweep(), m.Store, frustum, camera.Position))
			frame.staticTime = time.Since(start)
			if frame.staticCount != frame.visible {
				frame.countsDiffer = true
				logger.Warningf("frame %d: dynamic index saw %d systems, static index saw %d", frame.frame, frame.visible, frame.staticCount)
			}
		}
		frames = append(frames, frame)
	}

	displayCullStats(frames, static != nil, m.Store.Len())
	return nil
}

func displayCullStats(frames []cullFrame, withStatic bool, total int) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	header := []string{"Frame", "Yaw", "Visible", "% of systems", "Sweep time"}
	if withStatic {
		header = append(header, "Static visible", "Static sweep time")
	}
	table.SetHeader(header)

	var totalTime, totalStatic time.Duration
	for _, f := range frames {
		row := []string{
			fmt.Sprintf("%d", f.frame),
			fmt.Sprintf("%.1f", radToDeg(f.yaw)),
			fmt.Sprintf("%d", f.visible),
			percent(f.visible, total),
			fmt.Sprintf("%s", f.sweepTime),
		}
		if withStatic {
			mark := ""
			if f.countsDiffer {
				mark = " (!)"
			}
			row = append(row, fmt.Sprintf("%d%s", f.staticCount, mark), fmt.Sprintf("%s", f.staticTime))
		}
		table.Append(row)
		totalTime += f.sweepTime
		totalStatic += f.staticTime
	}

	footer := []string{"", "", "", "TOTAL", fmt.Sprintf("%s", totalTime)}
	if withStatic {
		footer = append(footer, "", fmt.Sprintf("%s", totalStatic))
	}
	table.SetFooter(footer)

	table.Render()
	logger.Noticef("frustum sweep over %d frames\n%s", len(frames), buf.String())
}

func splitStrategy(name string) (bvh.SplitStrategy, error) {
	switch strings.ToLower(name) {
	case "", "median":
		return bvh.MedianSplit, nil
	case "sah":
		return bvh.SurfaceAreaHeuristic, nil
	}
	return nil, fmt.Errorf("unknown split strategy %q; use median or sah", name)
}

func degToRad(deg float64) float32 {
	return float32(deg * math.Pi / 180)
}

func radToDeg(rad float32) float64 {
	return float64(rad) * 180 / math.Pi
}
