package camera

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-station/common"
)

const polarEpsilon = 1e-6

// orbitControlsImpl is the implementation of the OrbitControls interface.
type orbitControlsImpl struct {
	mu *sync.Mutex

	enabled       bool
	damping       bool
	dampingFactor float32

	minDistance float32
	maxDistance float32

	// pending input, consumed by Update
	deltaTheta float32
	deltaPhi   float32
	scale      float32
}

// OrbitControls orbits a camera around its target from pointer input. Input methods only queue
// deltas; the camera moves in Update, once per frame, so input arriving between frames never
// produces a half-applied camera state.
type OrbitControls interface {
	// Rotate queues an orbit from a pointer drag.
	//
	// Parameters:
	//   - dx, dy: the drag distance in pixels
	//   - height: the viewport height in pixels, a full-height drag orbits 2*pi
	Rotate(dx, dy, height float32)

	// Zoom queues a dolly from a scroll step. Positive steps move closer.
	//
	// Parameters:
	//   - steps: scroll wheel steps
	Zoom(steps float32)

	// Update applies queued input to cam, clamps its distance to the target, and decays the
	// remaining input when damping is enabled.
	//
	// Parameters:
	//   - cam: the camera to move
	//
	// Returns:
	//   - bool: true if the camera moved
	Update(cam Camera) bool

	// MinDistance returns the closest the camera may get to its target.
	MinDistance() float32

	// MaxDistance returns the farthest the camera may get from its target.
	MaxDistance() float32

	// SetDistanceLimits sets the distance clamp.
	//
	// Parameters:
	//   - minDist: the minimum distance
	//   - maxDist: the maximum distance, raised to minDist if smaller
	SetDistanceLimits(minDist, maxDist float32)

	// Enabled reports whether input is accepted.
	Enabled() bool

	// SetEnabled turns input handling on or off. Queued input is dropped when disabling.
	SetEnabled(enabled bool)
}

var _ OrbitControls = &orbitControlsImpl{}

// NewOrbitControls creates OrbitControls configured with the provided options.
// Defaults: damping on with factor 0.05, distance 0 to +Inf, unit speeds.
//
// Parameters:
//   - options: variadic list of OrbitControlsBuilderOption functions
//
// Returns:
//   - OrbitControls: the controls
func NewOrbitControls(options ...OrbitControlsBuilderOption) OrbitControls {
	oc := &orbitControlsImpl{
		mu:            &sync.Mutex{},
		enabled:       true,
		damping:       true,
		dampingFactor: 0.05,
		maxDistance:   math32.Inf(1),
		scale:         1,
	}
	for _, option := range options {
		option(oc)
	}
	return oc
}

func (oc *orbitControlsImpl) Rotate(dx, dy, height float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if !oc.enabled || height <= 0 {
		return
	}
	oc.deltaTheta -= 2 * math32.Pi * dx / height
	oc.deltaPhi -= 2 * math32.Pi * dy / height
}

func (oc *orbitControlsImpl) Zoom(steps float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if !oc.enabled || steps == 0 {
		return
	}
	oc.scale *= math32.Pow(0.95, steps)
}

func (oc *orbitControlsImpl) Update(cam Camera) bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()

	pos := cam.Position()
	target := cam.Target()
	offset := [3]float32{pos[0] - target[0], pos[1] - target[1], pos[2] - target[2]}

	radius := math32.Sqrt(offset[0]*offset[0] + offset[1]*offset[1] + offset[2]*offset[2])
	if radius == 0 {
		return false
	}
	idle := oc.deltaTheta == 0 && oc.deltaPhi == 0 && oc.scale == 1
	if idle && radius >= oc.minDistance && radius <= oc.maxDistance {
		return false
	}
	theta := math32.Atan2(offset[0], offset[2])
	phi := math32.Acos(common.Clamp(offset[1]/radius, -1, 1))

	if oc.damping {
		theta += oc.deltaTheta * oc.dampingFactor
		phi += oc.deltaPhi * oc.dampingFactor
	} else {
		theta += oc.deltaTheta
		phi += oc.deltaPhi
	}
	phi = common.Clamp(phi, polarEpsilon, math32.Pi-polarEpsilon)
	radius = common.Clamp(radius*oc.scale, oc.minDistance, oc.maxDistance)

	sinPhi := math32.Sin(phi)
	next := [3]float32{
		target[0] + radius*sinPhi*math32.Sin(theta),
		target[1] + radius*math32.Cos(phi),
		target[2] + radius*sinPhi*math32.Cos(theta),
	}

	if oc.damping {
		oc.deltaTheta = settle(oc.deltaTheta * (1 - oc.dampingFactor))
		oc.deltaPhi = settle(oc.deltaPhi * (1 - oc.dampingFactor))
	} else {
		oc.deltaTheta, oc.deltaPhi = 0, 0
	}
	oc.scale = 1

	cam.SetPosition(next[0], next[1], next[2])
	return true
}

func (oc *orbitControlsImpl) MinDistance() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.minDistance
}

func (oc *orbitControlsImpl) MaxDistance() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.maxDistance
}

func (oc *orbitControlsImpl) SetDistanceLimits(minDist, maxDist float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.minDistance = max(minDist, 0)
	oc.maxDistance = max(maxDist, oc.minDistance)
}

func (oc *orbitControlsImpl) Enabled() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.enabled
}

func (oc *orbitControlsImpl) SetEnabled(enabled bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.enabled = enabled
	if !enabled {
		oc.deltaTheta, oc.deltaPhi, oc.scale = 0, 0, 1
	}
}

// settle zeroes residual input too small to move the camera.
func settle(v float32) float32 {
	if math32.Abs(v) < 1e-5 {
		return 0
	}
	return v
}
