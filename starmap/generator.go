package starmap

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/starmap/bvh"
	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/log"
	"github.com/achilleasa/starmap/types"
	"github.com/google/uuid"
)

const (
	// Consecutive sphere test hits before a placement attempt gives up.
	maxIntersects = 8

	// Placement keeps systems away from the edges of the region.
	edgeMargin = 0.01

	companionChanceFalloff = 0.33
	companionRadiusGrowth  = 0.1
)

// GenerateStats summarizes a Generate run.
type GenerateStats struct {
	Systems int
	Stars   int

	// Random positions rejected because they overlapped a placed system.
	Collisions int

	// Systems placed only after shrinking to the minimum radius.
	RadiusFallbacks int

	Elapsed time.Duration
}

type starTemplate struct {
	classIndex int
	mass       float32
}

type generator struct {
	logger log.Logger
	cfg    Config
	bounds geom.Box3

	// One source per class so every class produces the same systems for
	// a given master seed regardless of which classes are enabled.
	classRand []*rand.Rand
	pools     []float32

	store *Store
	index Index
	stats GenerateStats
}

// Generate fills the configured region with stellar systems. Classes are
// processed from heaviest to lightest; each class keeps creating systems
// until its solar mass pool is exhausted. Systems never overlap: a candidate
// position is rejected if its sphere intersects any system already in the
// index.
func Generate(cfg Config) (*Starmap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	g := &generator{
		logger:    log.New("starmap"),
		cfg:       cfg,
		bounds:    cfg.Bounds(),
		classRand: make([]*rand.Rand, len(cfg.Classes)),
		pools:     make([]float32, len(cfg.Classes)),
		store:     NewStore(cfg.MaxSystems),
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	for i, class := range cfg.Classes {
		g.classRand[i] = rand.New(rand.NewSource(master.Int63()))
		g.pools[i] = class.SolarMassPool
	}

	var err error
	if g.index, err = newIndex(cfg, g.store); err != nil {
		return nil, err
	}

	lastClass := cfg.SpectralIndexMax
	if lastClass > len(cfg.Classes)-1 {
		lastClass = len(cfg.Classes) - 1
	}

	// Class 0 only caps the mass range of class 1.
	for classIndex := 1; classIndex <= lastClass; classIndex++ {
		class := cfg.Classes[classIndex]
		for g.pools[classIndex] >= class.MinSolarMass {
			templates, minRadius := g.starTemplates(classIndex)
			if minRadius > cfg.MaxSystemRadius {
				minRadius = cfg.MaxSystemRadius
			}
			if err = g.createSystem(classIndex, templates, minRadius, cfg.MaxSystemRadius); err != nil {
				g.logger.Warningf("generation stopped in class %s after %d systems: %v", class.Name, g.store.Len(), err)
				return nil, fmt.Errorf("%w (class %s, %d systems placed)", err, class.Name, g.store.Len())
			}
		}
	}

	g.stats.Systems = g.store.Len()
	g.stats.Stars = g.store.StarCount()
	g.stats.Elapsed = time.Since(start)
	g.logger.Infof("generated %d systems with %d stars in %d ms", g.stats.Systems, g.stats.Stars, g.stats.Elapsed.Nanoseconds()/1e6)

	return &Starmap{
		Config: cfg,
		Store:  g.store,
		Index:  g.index,
		Stats:  g.stats,
	}, nil
}

// starTemplates draws the primary star of classIndex followed by a chain of
// companions. Every star's mass is taken from its class pool. The returned
// radius is the minimum system radius grown by each companion.
func (g *generator) starTemplates(classIndex int) ([]starTemplate, float32) {
	templates := make([]starTemplate, 0, g.cfg.MaxStarsPerSystem)
	minRadius := g.cfg.MinSystemRadius
	chanceScalar := float32(1)

	for bodyClass := classIndex; bodyClass >= 1 && len(templates) < g.cfg.MaxStarsPerSystem; {
		rng := g.classRand[bodyClass]
		class := g.cfg.Classes[bodyClass]

		mass := lerpPct(class.MinSolarMass, g.cfg.Classes[bodyClass-1].MinSolarMass, uniformPct(rng))
		g.pools[bodyClass] -= mass
		templates = append(templates, starTemplate{classIndex: bodyClass, mass: mass})

		if uniformPct(rng) >= class.CompanionChance*chanceScalar {
			break
		}
		bodyClass = g.companionClass(bodyClass, rng)
		chanceScalar *= companionChanceFalloff
		minRadius += g.cfg.MinSystemRadius * companionRadiusGrowth
	}

	return templates, minRadius
}

// companionClass picks the class of a companion to a star of bodyClass.
// The roll is raised to a per class power so lighter companions are more
// likely. Classes whose pool cannot cover their minimum mass are skipped
// in favor of heavier ones; a result below 1 ends the chain.
func (g *generator) companionClass(bodyClass int, rng *rand.Rand) int {
	roll := uniformPct(rng) * 0.01
	classRoll := roll
	for i := 0; i < g.cfg.Classes[bodyClass].CompanionCurveExp; i++ {
		classRoll *= roll
	}

	available := len(g.cfg.Classes) - bodyClass
	interval := int(classRoll * float32(available))
	if interval >= available {
		interval = available - 1
	}

	companion := bodyClass + available - 1 - interval
	for ; companion >= 1; companion-- {
		if g.pools[companion] >= g.cfg.Classes[companion].MinSolarMass {
			break
		}
	}
	return companion
}

// createSystem sizes and places a system. If no free spot is found at the
// drawn radius, placement is retried once at minRadius.
func (g *generator) createSystem(classIndex int, templates []starTemplate, minRadius, maxRadius float32) error {
	if g.cfg.MaxSystems > 0 && g.store.Len() >= g.cfg.MaxSystems {
		return ErrOutOfMemory
	}

	rng := g.classRand[classIndex]
	radius := lerpPct(minRadius, maxRadius, uniformPct(rng))

	pos, ok := g.randomPositionInWorld(radius, rng)
	if !ok {
		radius = minRadius
		if pos, ok = g.randomPositionInWorld(radius, rng); !ok {
			return ErrRegionFull
		}
		g.stats.RadiusFallbacks++
	}

	sys := &System{
		Position: pos,
		Radius:   radius,
		Seed:     rng.Int63(),
		Stars:    make([]Star, 0, len(templates)),
	}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return err
	}
	sys.ID = id
	for _, tmpl := range templates {
		sys.Stars = append(sys.Stars, NewStar(tmpl.classIndex, tmpl.mass))
	}

	g.store.Add(sys)
	if _, err = g.index.InsertObject(sys.ID); err != nil {
		g.store.remove(sys.ID)
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	g.logger.Debugf("created system %s at %v radius=%.3f stars=%d", sys.ID, sys.Position, sys.Radius, len(sys.Stars))
	return nil
}

// randomPositionInWorld draws positions until one does not intersect any
// placed system. It gives up after maxIntersects consecutive hits.
func (g *generator) randomPositionInWorld(radius float32, rng *rand.Rand) (types.Vec3, bool) {
	test := g.index.SphereTest()
	for hits := 0; ; {
		pos := g.randomPositionWithinBounds(rng)
		if !test.Intersects(pos, radius) {
			return pos, true
		}
		g.stats.Collisions++
		if hits++; hits >= maxIntersects {
			return pos, false
		}
	}
}

func (g *generator) randomPositionWithinBounds(rng *rand.Rand) types.Vec3 {
	var pos types.Vec3
	for axis := range pos {
		pos[axis] = clamp(rng.Float32(), edgeMargin, 1-edgeMargin)
	}

	dims := g.bounds.Dimensions()
	for axis := range pos {
		pos[axis] = g.bounds.Min[axis] + pos[axis]*dims[axis]
	}
	return pos
}

func newIndex(cfg Config, store *Store) (Index, error) {
	switch cfg.Index {
	case IndexOctree:
		octree, err := bvh.NewOctree[uuid.UUID](cfg.Bounds(), store, bvh.OctreeOptions{
			ObjectsPerLeaf: cfg.OctreeObjectsPerLeaf,
			MaxDepth:       cfg.OctreeMaxDepth,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return octree, nil
	default:
		return bvh.NewTreeWithOptions[uuid.UUID](bvh.DefaultOptions(int32(cfg.MaxSystems)), store), nil
	}
}

// uniformPct returns a value in [0, 100).
func uniformPct(rng *rand.Rand) float32 {
	return rng.Float32() * 100
}

func lerpPct(from, to, pct float32) float32 {
	return from + (to-from)*pct*0.01
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
