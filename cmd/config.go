package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/starmap/starmap"
	"github.com/achilleasa/starmap/types"
	"github.com/urfave/cli"
)

// Flags shared by every command that generates a starmap.
var GeneratorFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load generator settings from a JSON file",
	},
	cli.Int64Flag{
		Name:  "seed",
		Usage: "override the master seed",
	},
	cli.StringFlag{
		Name:  "index",
		Usage: "spatial index used during placement (aabb or octree)",
	},
	cli.IntFlag{
		Name:  "max-systems",
		Usage: "stop with an error after placing this many systems",
	},
	cli.IntFlag{
		Name:  "spectral-max",
		Value: -1,
		Usage: "skip spectral classes past this index",
	},
}

func loadConfig(ctx *cli.Context) (starmap.Config, error) {
	cfg := starmap.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = starmap.LoadConfig(context.Background(), path); err != nil {
			return cfg, err
		}
		logger.Infof("loaded generator config from %s", path)
	}

	if ctx.IsSet("seed") {
		cfg.Seed = ctx.Int64("seed")
	}
	if index := ctx.String("index"); index != "" {
		cfg.Index = starmap.IndexKind(strings.ToLower(index))
	}
	if ctx.IsSet("max-systems") {
		cfg.MaxSystems = ctx.Int("max-systems")
	}
	if classIndex := ctx.Int("spectral-max"); classIndex >= 0 {
		cfg.SpectralIndexMax = classIndex
	}

	return cfg, cfg.Validate()
}

func parseVec3(value string) (types.Vec3, error) {
	var v types.Vec3
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected a vector in x,y,z format; got %q", value)
	}
	for axis, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		v[axis] = float32(f)
	}
	return v, nil
}
