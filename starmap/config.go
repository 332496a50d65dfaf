package starmap

import (
	"context"
	"fmt"
	"io"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/resource"
	"github.com/achilleasa/starmap/types"
	"github.com/segmentio/encoding/json"
)

// IndexKind selects the spatial index used while placing systems.
type IndexKind string

const (
	IndexAABBTree IndexKind = "aabb"
	IndexOctree   IndexKind = "octree"
)

// Config holds the inputs of the starmap generator. Values are usually loaded
// from a JSON document and then overridden by command line flags.
type Config struct {
	Seed int64 `json:"seed"`

	// Region of space to fill. Systems are placed between 1% and 99% of
	// each dimension.
	BoundsMin types.Vec3 `json:"bounds_min"`
	BoundsMax types.Vec3 `json:"bounds_max"`

	MinSystemRadius float32 `json:"min_system_radius"`
	MaxSystemRadius float32 `json:"max_system_radius"`

	// Classes past this index are skipped as primaries.
	SpectralIndexMax int `json:"spectral_index_max"`

	MaxStarsPerSystem int `json:"max_stars_per_system"`

	// Upper bound on generated systems. Zero means unbounded.
	MaxSystems int `json:"max_systems"`

	Index IndexKind `json:"index"`

	// Octree tuning; ignored by the AABB tree.
	OctreeObjectsPerLeaf int `json:"octree_objects_per_leaf"`
	OctreeMaxDepth       int `json:"octree_max_depth"`

	Classes []SpectralClass `json:"classes"`

	// Optional JSON class table replacing Classes. Loading it also enables
	// every class in the table. Relative locations are resolved against the
	// config document.
	ClassesFile string `json:"classes_file,omitempty"`
}

// DefaultConfig returns a config that fills a 64 unit cube with the default
// spectral classes.
func DefaultConfig() Config {
	classes := DefaultSpectralClasses()
	return Config{
		Seed:              1,
		BoundsMin:         types.Vec3{0, 0, 0},
		BoundsMax:         types.Vec3{64, 64, 64},
		MinSystemRadius:   0.25,
		MaxSystemRadius:   1,
		SpectralIndexMax:  len(classes) - 1,
		MaxStarsPerSystem: 4,
		Index:             IndexAABBTree,
		Classes:           classes,
	}
}

// Bounds returns the generation region.
func (c Config) Bounds() geom.Box3 {
	return geom.NewAABB(c.BoundsMin, c.BoundsMax)
}

// Validate checks the config for values the generator cannot work with. The
// returned error wraps ErrInvalidInput.
func (c Config) Validate() error {
	if c.Bounds().Volume() <= 0 {
		return fmt.Errorf("%w: bounds %s have no volume", ErrInvalidInput, c.Bounds())
	}
	if c.MinSystemRadius <= 0 || c.MaxSystemRadius < c.MinSystemRadius {
		return fmt.Errorf("%w: system radius range [%g, %g]", ErrInvalidInput, c.MinSystemRadius, c.MaxSystemRadius)
	}
	if len(c.Classes) < 2 {
		return fmt.Errorf("%w: need a reference class and at least one star class", ErrInvalidInput)
	}
	if c.MaxStarsPerSystem < 1 {
		return fmt.Errorf("%w: max stars per system must be at least 1", ErrInvalidInput)
	}
	if c.MaxSystems < 0 {
		return fmt.Errorf("%w: max systems must not be negative", ErrInvalidInput)
	}
	for i := 1; i < len(c.Classes); i++ {
		class := c.Classes[i]
		if class.MinSolarMass <= 0 {
			return fmt.Errorf("%w: class %q has no minimum mass", ErrInvalidInput, class.Name)
		}
		if class.MinSolarMass > c.Classes[i-1].MinSolarMass {
			return fmt.Errorf("%w: class %q is heavier than class %q", ErrInvalidInput, class.Name, c.Classes[i-1].Name)
		}
		if class.CompanionCurveExp < 0 {
			return fmt.Errorf("%w: class %q has a negative companion curve", ErrInvalidInput, class.Name)
		}
	}
	switch c.Index {
	case IndexAABBTree, IndexOctree:
	default:
		return fmt.Errorf("%w: unknown index %q", ErrInvalidInput, c.Index)
	}
	return nil
}

// ReadConfig decodes a JSON config on top of DefaultConfig.
func ReadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if err = json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("starmap: could not decode config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a JSON config from a file path or an http(s) URL. A
// classes_file entry is loaded relative to location.
func LoadConfig(ctx context.Context, location string) (Config, error) {
	res, err := resource.Open(ctx, location, "")
	if err != nil {
		return Config{}, err
	}
	defer res.Close()

	cfg, err := ReadConfig(res)
	if err != nil || cfg.ClassesFile == "" {
		return cfg, err
	}

	data, err := resource.ReadAll(ctx, cfg.ClassesFile, res.Path())
	if err != nil {
		return Config{}, err
	}
	var classes []SpectralClass
	if err = json.Unmarshal(data, &classes); err != nil {
		return Config{}, fmt.Errorf("starmap: could not decode class table %s: %w", cfg.ClassesFile, err)
	}
	cfg.Classes = classes
	cfg.SpectralIndexMax = len(classes) - 1
	return cfg, nil
}
