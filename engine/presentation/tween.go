package presentation

import (
	"time"

	"github.com/chewxy/math32"
)

// Ease maps linear progress in [0, 1] to eased progress.
type Ease func(t float32) float32

// Power1Out decelerates quadratically.
func Power1Out(t float32) float32 {
	return 1 - (1-t)*(1-t)
}

// Linear leaves progress unchanged.
func Linear(t float32) float32 {
	return t
}

// Tween interpolates a vector between two values over a window of time.
type Tween struct {
	From, To [3]float32
	Delay    time.Duration
	Duration time.Duration
	Ease     Ease
}

// At evaluates the tween.
//
// Parameters:
//   - since: time since the tween was scheduled
//
// Returns:
//   - [3]float32: the interpolated value, From before the delay and To after the end
//   - bool: true once the tween has finished
func (tw Tween) At(since time.Duration) ([3]float32, bool) {
	if tw.Duration <= 0 {
		return tw.To, since >= tw.Delay
	}
	t := float32(since-tw.Delay) / float32(tw.Duration)
	t = math32.Max(0, math32.Min(1, t))
	ease := tw.Ease
	if ease == nil {
		ease = Linear
	}
	k := ease(t)

	var out [3]float32
	for i := range out {
		out[i] = tw.From[i] + (tw.To[i]-tw.From[i])*k
	}
	return out, t >= 1
}
