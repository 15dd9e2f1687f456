package camera

// OrbitControlsBuilderOption is a function that configures OrbitControls during construction.
type OrbitControlsBuilderOption func(*orbitControlsImpl)

// WithDistanceLimits sets the closest and farthest the camera may get from its target.
//
// Parameters:
//   - minDist: the minimum distance
//   - maxDist: the maximum distance
//
// Returns:
//   - OrbitControlsBuilderOption: a function that applies the limits
func WithDistanceLimits(minDist, maxDist float32) OrbitControlsBuilderOption {
	return func(oc *orbitControlsImpl) {
		oc.minDistance = max(minDist, 0)
		oc.maxDistance = max(maxDist, oc.minDistance)
	}
}

// WithDamping enables or disables inertia. With damping, each Update applies factor of the
// queued input and keeps the rest for later frames.
//
// Parameters:
//   - enabled: whether damping is on
//   - factor: the fraction of input applied per update, in (0, 1]
//
// Returns:
//   - OrbitControlsBuilderOption: a function that applies the damping settings
func WithDamping(enabled bool, factor float32) OrbitControlsBuilderOption {
	return func(oc *orbitControlsImpl) {
		oc.damping = enabled
		if factor > 0 && factor <= 1 {
			oc.dampingFactor = factor
		}
	}
}
