package control

import "github.com/Carmen-Shannon/oxy-station/engine/params"

// Message types sent to clients.
const (
	TypeSchema   = "schema"
	TypeParam    = "param"
	TypeProgress = "progress"
	TypeReady    = "ready"
	TypeControls = "controls"
	TypeError    = "error"
)

// Envelope is every server-to-client message.
type Envelope struct {
	Type     string           `json:"type"`
	Targets  []TargetSchema   `json:"targets,omitempty"`
	Target   string           `json:"target,omitempty"`
	Param    *ParamSchema     `json:"param,omitempty"`
	Progress *ProgressPayload `json:"progress,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// SetParamMessage is the only client-to-server message. Value is a number, a bool or a
// "#rrggbb" color string.
type SetParamMessage struct {
	Target string `json:"target"`
	Param  string `json:"param"`
	Value  any    `json:"value"`
}

// TargetSchema lists the parameters of one target.
type TargetSchema struct {
	Name   string        `json:"name"`
	Params []ParamSchema `json:"params"`
}

// ParamSchema describes one parameter and its current value.
type ParamSchema struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Step  *float64 `json:"step,omitempty"`
	Value any      `json:"value"`
}

// ProgressPayload mirrors the loading overlay.
type ProgressPayload struct {
	Percentage int     `json:"percentage"`
	Text       string  `json:"text"`
	BarOffset  float32 `json:"barOffset"`
	Opacity    float32 `json:"opacity"`
	Visible    bool    `json:"visible"`
	Error      string  `json:"error,omitempty"`
}

func describe(p params.Param) ParamSchema {
	ps := ParamSchema{Name: p.Name, Kind: p.Kind.String()}
	switch p.Kind {
	case params.KindNumber:
		minV, maxV, step := p.Min, p.Max, p.Step
		ps.Min, ps.Max, ps.Step = &minV, &maxV, &step
		ps.Value = p.Number
	case params.KindColor:
		ps.Value = p.Color.String()
	default:
		ps.Value = p.Value()
	}
	return ps
}
