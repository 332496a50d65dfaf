package starmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Camera is a perspective viewer. With zero yaw and pitch it looks down +Z.
type Camera struct {
	NearZ  float32
	FarZ   float32
	FOV    float32 // vertical, radians
	Aspect float32

	Position types.Vec3
	Yaw      float32
	Pitch    float32
}

// NewCamera returns a camera at pos with a 60 degree field of view.
func NewCamera(pos types.Vec3, farZ float32) Camera {
	return Camera{
		NearZ:    0.1,
		FarZ:     farZ,
		FOV:      math.Pi / 3,
		Aspect:   16.0 / 9.0,
		Position: pos,
	}
}

// Orientation returns the rotation of the camera.
func (c Camera) Orientation() types.Quat {
	return types.QuatFromYawPitch(c.Yaw, c.Pitch)
}

// Forward returns the view direction.
func (c Camera) Forward() types.Vec3 {
	return c.Orientation().Rotate(types.Vec3{0, 0, 1})
}

// Frustum returns the world space view frustum.
func (c Camera) Frustum() geom.Frustum {
	return geom.NewFrustum(c.NearZ, c.FarZ, c.FOV, c.Aspect).Transform(c.Orientation().Mat3(), c.Position)
}

// Sweep animates the camera yaw between two angles over a fixed number of
// frames.
type Sweep struct {
	camera Camera
	tween  *gween.Tween
	dt     float32
	frames int
	frame  int
	done   bool
}

var easings = map[string]ease.TweenFunc{
	"linear":      ease.Linear,
	"in-out-quad": ease.InOutQuad,
	"in-out-sine": ease.InOutSine,
	"out-bounce":  ease.OutBounce,
}

// EasingNames lists the easings accepted by NewSweep.
func EasingNames() []string {
	return []string{"linear", "in-out-quad", "in-out-sine", "out-bounce"}
}

// NewSweep prepares a yaw sweep from fromYaw to toYaw (radians) spread over
// frames steps.
func NewSweep(camera Camera, fromYaw, toYaw float32, frames int, easing string) (*Sweep, error) {
	if frames < 1 {
		return nil, fmt.Errorf("%w: a sweep needs at least one frame", ErrInvalidInput)
	}
	fn, ok := easings[strings.ToLower(easing)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown easing %q; use one of %s", ErrInvalidInput, easing, strings.Join(EasingNames(), ", "))
	}

	camera.Yaw = fromYaw
	return &Sweep{
		camera: camera,
		tween:  gween.New(fromYaw, toYaw, 1, fn),
		dt:     1 / float32(frames),
		frames: frames,
	}, nil
}

// Next advances the sweep by one frame and returns the camera for that
// frame. It returns false once every frame has been produced.
func (s *Sweep) Next() (Camera, bool) {
	if s.done {
		return s.camera, false
	}

	yaw, finished := s.tween.Update(s.dt)
	s.camera.Yaw = yaw
	s.frame++
	if finished || s.frame >= s.frames {
		s.done = true
	}
	return s.camera, true
}

// Frame returns the number of frames produced so far.
func (s *Sweep) Frame() int {
	return s.frame
}
