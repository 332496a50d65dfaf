package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/achilleasa/starmap/starmap"
	"github.com/achilleasa/starmap/types"
	"github.com/urfave/cli"
)

// Generate a starmap and optionally write it out as JSON.
func Generate(ctx *cli.Context) error {
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

	displayGenerateStats(m)
	displayIndexStats(namedStats{string(cfg.Index), m.Index.Stats()})

	out := ctx.String("out")
	if out == "" {
		return nil
	}

	if err = writeStarmap(m, out, ctx.Bool("indent")); err != nil {
		return err
	}
	logger.Noticef("wrote %d systems to %s", m.Store.Len(), out)
	return nil
}

// writeStarmap saves m as JSON. Errors from flushing the file on close are
// reported.
func writeStarmap(m *starmap.Starmap, path string, indent bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	return m.WriteJSON(f, indent)
}

// Neighbors lists the systems around a point.
func Neighbors(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing x,y,z position argument")
	}
	center, err := parseVec3(ctx.Args().First())
	if err != nil {
		return err
	}
	radius := float32(ctx.Float64("radius"))
	if radius <= 0 {
		return fmt.Errorf("radius must be positive; got %f", radius)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	m, err := starmap.Generate(cfg)
	if err != nil {
		return err
	}

	ids := m.Neighbors(center, radius)
	logger.Noticef("%d systems within %.2f of %v", len(ids), radius, center)
	for _, id := range ids {
		sys, _ := m.Store.Get(id)
		logger.Noticef("  %s at %v (distance %.2f, %d stars)", id, sys.Position, distance(sys.Position, center), len(sys.Stars))
	}
	return nil
}

func distance(a, b types.Vec3) float32 {
	return a.Sub(b).Len()
}
