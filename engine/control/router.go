// Package control exposes the scene and pass parameters to external tools over a WebSocket
// connection and applies parameter preset files dropped into a watched directory.
package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/engine/params"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
)

// ErrUnknownTarget is returned for a target name the router does not know.
var ErrUnknownTarget = errors.New("unknown target")

type setFunc func(name string, v any) (params.Param, error)

type route struct {
	target params.Target
	set    setFunc
}

// Router maps target names to parameter targets in registration order.
type Router struct {
	mu     sync.RWMutex
	order  []string
	routes map[string]route
}

// NewRouter creates a router over targets. A later target replaces an earlier one of the same name.
//
// Parameters:
//   - targets: the parameter targets
//
// Returns:
//   - *Router: the router
func NewRouter(targets ...params.Target) *Router {
	r := &Router{routes: make(map[string]route)}
	for _, t := range targets {
		r.add(t, t.SetParam)
	}
	return r
}

// AddPipeline registers every pass of p. Changes go through p.SetParam so they are logged and
// counted by the pipeline.
//
// Parameters:
//   - p: the render pipeline
func (r *Router) AddPipeline(p pipeline.Pipeline) {
	for _, pass := range p.Passes() {
		name := pass.Name()
		r.add(pass, func(param string, v any) (params.Param, error) {
			return p.SetParam(name, param, v)
		})
	}
}

func (r *Router) add(t params.Target, set setFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.routes[t.Name()] = route{target: t, set: set}
}

// Apply sets one parameter.
//
// Parameters:
//   - target: the target name
//   - name: the parameter name
//   - v: the value
//
// Returns:
//   - params.Param: the stored parameter
//   - error: ErrUnknownTarget, params.ErrUnknownParam or params.ErrInvalidValue
func (r *Router) Apply(target, name string, v any) (params.Param, error) {
	r.mu.RLock()
	rt, ok := r.routes[target]
	r.mu.RUnlock()
	if !ok {
		return params.Param{}, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return rt.set(name, v)
}

// Schema describes every target and its current values.
func (r *Router) Schema() []TargetSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TargetSchema, 0, len(r.order))
	for _, name := range r.order {
		ts := TargetSchema{Name: name}
		for _, p := range r.routes[name].target.Params() {
			ts.Params = append(ts.Params, describe(p))
		}
		out = append(out, ts)
	}
	return out
}
