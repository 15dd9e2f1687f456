package presentation

// WideBreakpoint is the logical viewport width at which the wide layout starts.
const WideBreakpoint = 600

// Preset is the camera framing for one device class.
type Preset struct {
	Wide bool

	// Initial is where the camera waits while assets load.
	Initial [3]float32

	// Resting is where the fly-in ends.
	Resting [3]float32

	MinDistance float32
	MaxDistance float32
}

var (
	widePreset = Preset{
		Wide:        true,
		Initial:     [3]float32{12, 10, 12},
		Resting:     [3]float32{9, 6, 9},
		MinDistance: 4,
		MaxDistance: 20,
	}
	narrowPreset = Preset{
		Initial:     [3]float32{20, 18, 20},
		Resting:     [3]float32{14, 12, 14},
		MinDistance: 4,
		MaxDistance: 35,
	}
)

// PresetFor picks the framing for a logical viewport width.
//
// Parameters:
//   - logicalWidth: the viewport width in logical pixels
//
// Returns:
//   - Preset: the wide preset at WideBreakpoint and above, the narrow one below
func PresetFor(logicalWidth int) Preset {
	if logicalWidth >= WideBreakpoint {
		return widePreset
	}
	return narrowPreset
}
