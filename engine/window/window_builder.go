package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial logical window size. Non-positive values keep the default.
//
// Parameters:
//   - width: initial width in logical pixels
//   - height: initial height in logical pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.viewport.Width = width
		}
		if height > 0 {
			w.viewport.Height = height
		}
	}
}

// WithMinSize sets the smallest size the user can resize the window to. Keeping it above the
// narrow preset's useful range stops the orbit camera from collapsing to a sliver.
//
// Parameters:
//   - width: minimum width in logical pixels, 0 for none
//   - height: minimum height in logical pixels, 0 for none
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = width, height
	}
}
