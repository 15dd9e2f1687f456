package presentation

import "github.com/rs/zerolog"

// ControllerBuilderOption is a functional option used to configure a Controller during construction.
type ControllerBuilderOption func(*controller)

// WithOverlayListener sets the function called with the overlay state whenever it changes.
//
// Parameters:
//   - fn: the listener; it must not call back into the controller
//
// Returns:
//   - ControllerBuilderOption: a function that sets the listener
func WithOverlayListener(fn func(Overlay)) ControllerBuilderOption {
	return func(c *controller) {
		c.onOverlay = fn
	}
}

// WithControlsListener sets the function called once when the parameter controls are revealed.
func WithControlsListener(fn func()) ControllerBuilderOption {
	return func(c *controller) {
		c.onControls = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ControllerBuilderOption {
	return func(c *controller) {
		c.logger = l
	}
}
