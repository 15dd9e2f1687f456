// Package params holds the typed, bounded parameter tables that passes and the scene expose to
// the control surface.
//
// Numeric values are never rejected for being out of range: they are clamped to [Min, Max] and
// then snapped to the nearest Step counted from Min.
package params

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
)

var (
	// ErrUnknownParam is returned for a parameter name the table does not declare.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrInvalidValue is returned when a value has the wrong type for its parameter.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// Kind is the value type of a parameter.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param is one declared parameter and its current value. Only the field matching Kind is
// meaningful.
type Param struct {
	Name string
	Kind Kind

	Min, Max, Step float64

	Number float64
	Bool   bool
	Color  common.Color
}

// Number declares a numeric parameter. The default is clamped and snapped like any other value.
func Number(name string, minV, maxV, step, def float64) Param {
	p := Param{Name: name, Kind: KindNumber, Min: minV, Max: max(maxV, minV), Step: step}
	p.Number = p.normalize(def)
	return p
}

// Bool declares a boolean parameter.
func Bool(name string, def bool) Param {
	return Param{Name: name, Kind: KindBool, Bool: def}
}

// Color declares a color parameter.
func Color(name string, def common.Color) Param {
	return Param{Name: name, Kind: KindColor, Color: def}
}

// Value returns the current value as float64, bool or common.Color.
func (p Param) Value() any {
	switch p.Kind {
	case KindBool:
		return p.Bool
	case KindColor:
		return p.Color
	default:
		return p.Number
	}
}

// normalize clamps v to the bounds and snaps it to the step grid.
func (p Param) normalize(v float64) float64 {
	if math.IsNaN(v) {
		return p.Min
	}
	v = common.Clamp(v, p.Min, p.Max)
	if p.Step > 0 {
		v = p.Min + math.Round((v-p.Min)/p.Step)*p.Step
		v = common.Clamp(v, p.Min, p.Max)
		v = math.Round(v*1e9) / 1e9
	}
	return v
}

// assign converts v to the parameter's kind and stores it.
func (p *Param) assign(v any) error {
	switch p.Kind {
	case KindNumber:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: %s wants a number, got %T", ErrInvalidValue, p.Name, v)
		}
		p.Number = p.normalize(f)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a bool, got %T", ErrInvalidValue, p.Name, v)
		}
		p.Bool = b
	case KindColor:
		switch c := v.(type) {
		case common.Color:
			p.Color = c
		case string:
			parsed, err := common.ParseHexColor(c)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidValue, p.Name, err)
			}
			p.Color = parsed
		default:
			f, ok := toFloat(v)
			if !ok || f < 0 || f > 0xffffff {
				return fmt.Errorf("%w: %s wants a color, got %T", ErrInvalidValue, p.Name, v)
			}
			p.Color = common.ColorFromHex(uint32(f))
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

// Table is an ordered set of parameters. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	order  []Param
	byName map[string]int
}

// NewTable creates a table holding ps in the given order. Later duplicates replace earlier ones
// in place.
//
// Parameters:
//   - ps: the declared parameters
//
// Returns:
//   - *Table: the table
func NewTable(ps ...Param) *Table {
	t := &Table{byName: make(map[string]int, len(ps))}
	for _, p := range ps {
		if i, ok := t.byName[p.Name]; ok {
			t.order[i] = p
			continue
		}
		t.byName[p.Name] = len(t.order)
		t.order = append(t.order, p)
	}
	return t
}

// Get returns the named parameter.
//
// Parameters:
//   - name: the parameter name
//
// Returns:
//   - Param: the parameter
//   - error: ErrUnknownParam if it is not declared
func (t *Table) Get(name string) (Param, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byName[name]
	if !ok {
		return Param{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return t.order[i], nil
}

// Set stores a new value, clamped and snapped for numbers.
//
// Parameters:
//   - name: the parameter name
//   - v: a float64, float32, int, bool, common.Color or "#rrggbb" string
//
// Returns:
//   - Param: the parameter with the value actually stored
//   - error: ErrUnknownParam or ErrInvalidValue
func (t *Table) Set(name string, v any) (Param, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byName[name]
	if !ok {
		return Param{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	p := t.order[i]
	if err := p.assign(v); err != nil {
		return Param{}, err
	}
	t.order[i] = p
	return p, nil
}

// List returns a copy of every parameter in declaration order.
func (t *Table) List() []Param {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Param, len(t.order))
	copy(out, t.order)
	return out
}

// Number returns the numeric value of name, or 0 when it is not declared.
func (t *Table) Number(name string) float64 {
	p, _ := t.Get(name)
	return p.Number
}

// Bool returns the boolean value of name, or false when it is not declared.
func (t *Table) Bool(name string) bool {
	p, _ := t.Get(name)
	return p.Bool
}

// Target is anything that exposes a parameter table to the control surface.
type Target interface {
	// Name is the target name used in control messages, e.g. "bloom" or "scene".
	Name() string

	// Params lists the current parameters in declaration order.
	Params() []Param

	// SetParam applies a value and returns what was stored.
	//
	// Parameters:
	//   - name: the parameter name
	//   - v: the requested value
	//
	// Returns:
	//   - Param: the stored parameter
	//   - error: ErrUnknownParam or ErrInvalidValue
	SetParam(name string, v any) (Param, error)
}
