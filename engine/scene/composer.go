// Package scene composes the station scene: the camera, a root with a vehicle group and an
// environment group, the point light, the sun proxy used by the god rays pass, and the role
// table of every attached asset.
//
// One mutex guards the node tree. Asset attachment and per-tick animation both take it, so a
// frame sees a sub-tree either fully attached or not at all.
package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chewxy/math32"
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/assets"
	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/light"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/params"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// Role names the scene logic looks up.
const (
	RolePropeller  = "propeller"
	RoleCarWindows = "carWindows"
)

// Scene parameter names.
const (
	ParamTruckPositionX  = "TruckPositionX"
	ParamCameraPositionX = "CameraPositionX"
	ParamCameraPositionY = "CameraPositionY"
	ParamCameraPositionZ = "CameraPositionZ"
	// ParamPointLight switches the point light's shading of flat materials. Off by default, so
	// every material renders unlit.
	ParamPointLight = "PointLight"
)

const (
	// PropellerStep is the propeller's Y rotation per tick, in radians.
	PropellerStep float32 = 0.01
	// BobFrequency and BobAmplitude shape the vehicle's vertical hover.
	BobFrequency float32 = 1.5
	BobAmplitude float32 = 0.05
)

var (
	// ErrAlreadyAttached is returned when an asset is attached twice without a detach.
	ErrAlreadyAttached = errors.New("asset already attached")
	// ErrNotAttached is returned when detaching an asset that is not attached.
	ErrNotAttached = errors.New("asset not attached")
	// ErrRoleTaken is returned when an attached asset already provides a role.
	ErrRoleTaken = errors.New("role provided by another asset")
	// ErrUnknownGroup is returned for a group the composer does not own.
	ErrUnknownGroup = errors.New("unknown group")
)

// attachment is one attached asset.
type attachment struct {
	group assets.Group
	model model.Model
	roles map[string]*model.Node
	gen   uint64
}

// composer is the implementation of the Composer interface.
type composer struct {
	mu sync.RWMutex

	cam         camera.Camera
	root        *model.Node
	vehicle     *model.Node
	environment *model.Node
	pointLight  light.Light
	sun         *Sun

	attached map[string]*attachment
	roles    map[string]string
	gen      uint64

	params *params.Table
	logger zerolog.Logger
}

// Composer owns the scene graph the render pipeline draws.
type Composer interface {
	assets.Attacher
	params.Target

	// Detach removes an attached asset and invalidates every handle taken from it.
	//
	// Parameters:
	//   - assetID: the asset to remove
	//
	// Returns:
	//   - error: ErrNotAttached if the asset is not attached
	Detach(assetID string) error

	// Role returns a handle to the node providing role. The handle is invalid when no attached
	// asset provides it, which is normal for optional roles.
	//
	// Parameters:
	//   - role: the role name
	//
	// Returns:
	//   - Handle: the handle
	Role(role string) Handle

	// Attached lists the attached asset IDs in sorted order.
	Attached() []string

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Light returns the scene point light.
	Light() light.Light

	// Sun returns the light-occluder proxy.
	Sun() *Sun

	// Animate advances per-tick animation: the propeller turns by PropellerStep when present
	// and the vehicle group hovers as a function of elapsed time.
	//
	// Parameters:
	//   - elapsed: seconds since the scheduler started
	Animate(elapsed float32)

	// Visit walks every visible node under the root in pre-order while holding the scene lock
	// for reading. fn receives the node and its world matrix.
	//
	// Parameters:
	//   - fn: the visitor; it must not call back into the composer
	Visit(fn func(n *model.Node, world [16]float32))

	// VehicleY returns the vehicle group's current vertical offset.
	VehicleY() float32
}

var _ Composer = &composer{}

// NewComposer creates a Composer configured with the provided options. A camera is required.
//
// Parameters:
//   - cam: the scene camera (must not be nil)
//   - options: variadic list of ComposerBuilderOption functions
//
// Returns:
//   - Composer: the composer
func NewComposer(cam camera.Camera, options ...ComposerBuilderOption) Composer {
	if cam == nil {
		panic("scene: NewComposer requires a non-nil Camera")
	}
	c := &composer{
		cam:         cam,
		root:        model.NewNode("scene"),
		vehicle:     model.NewNode(string(assets.GroupVehicle)),
		environment: model.NewNode(string(assets.GroupEnvironment)),
		attached:    make(map[string]*attachment),
		roles:       make(map[string]string),
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.pointLight == nil {
		c.pointLight = light.NewLight(
			light.WithPosition(-7, 5, -7),
			light.WithColor(common.ColorFromHex(0xbdadff)),
			light.WithIntensity(10),
			light.WithEnabled(false),
		)
	}
	if c.sun == nil {
		c.sun = NewSun(nil)
		c.sun.lock = &c.mu
	}

	c.root.Add(c.vehicle)
	c.root.Add(c.environment)
	c.root.Add(c.sun.node)

	pos := cam.Position()
	c.params = params.NewTable(
		params.Number(ParamTruckPositionX, -10, 10, 0.05, 0),
		params.Number(ParamCameraPositionX, -25, 25, 0.001, float64(pos[0])),
		params.Number(ParamCameraPositionY, -25, 25, 0.001, float64(pos[1])),
		params.Number(ParamCameraPositionZ, -25, 25, 0.001, float64(pos[2])),
		params.Bool(ParamPointLight, c.pointLight.Enabled()),
	)
	return c
}

func (c *composer) group(g assets.Group) (*model.Node, error) {
	switch g {
	case assets.GroupVehicle:
		return c.vehicle, nil
	case assets.GroupEnvironment:
		return c.environment, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
	}
}

func (c *composer) Attach(assetID string, group assets.Group, m model.Model, roles map[string]*model.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.attached[assetID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, assetID)
	}
	parent, err := c.group(group)
	if err != nil {
		return err
	}
	for role := range roles {
		if owner, ok := c.roles[role]; ok {
			return fmt.Errorf("%w: %s already provided by %s", ErrRoleTaken, role, owner)
		}
	}

	c.gen++
	table := make(map[string]*model.Node, len(roles))
	for role, n := range roles {
		table[role] = n
		c.roles[role] = assetID
	}
	c.attached[assetID] = &attachment{group: group, model: m, roles: table, gen: c.gen}
	parent.Add(m.Root())

	c.logger.Debug().Str("asset", assetID).Str("group", string(group)).Int("nodes", m.Root().Count()).Msg("attached")
	return nil
}

func (c *composer) Detach(assetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.attached[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, assetID)
	}
	if parent := a.model.Root().Parent(); parent != nil {
		parent.Remove(a.model.Root())
	}
	for role := range a.roles {
		delete(c.roles, role)
	}
	delete(c.attached, assetID)

	c.logger.Debug().Str("asset", assetID).Msg("detached")
	return nil
}

func (c *composer) Role(role string) Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assetID, ok := c.roles[role]
	if !ok {
		return Handle{}
	}
	return Handle{c: c, assetID: assetID, role: role, gen: c.attached[assetID].gen}
}

// resolve looks a handle up. Caller holds mu.
func (c *composer) resolve(h Handle) (*model.Node, bool) {
	a, ok := c.attached[h.assetID]
	if !ok || a.gen != h.gen {
		return nil, false
	}
	n, ok := a.roles[h.role]
	return n, ok
}

func (c *composer) Attached() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.attached))
	for id := range c.attached {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *composer) Camera() camera.Camera {
	return c.cam
}

func (c *composer) Light() light.Light {
	return c.pointLight
}

func (c *composer) Sun() *Sun {
	return c.sun
}

func (c *composer) Animate(elapsed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if assetID, ok := c.roles[RolePropeller]; ok {
		if n := c.attached[assetID].roles[RolePropeller]; n != nil {
			n.Rotation[1] += PropellerStep
		}
	}
	c.vehicle.Position[1] = math32.Sin(elapsed*BobFrequency) * BobAmplitude
}

func (c *composer) VehicleY() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vehicle.Position[1]
}

func (c *composer) Visit(fn func(n *model.Node, world [16]float32)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var parent [16]float32
	common.Identity(parent[:])
	visitNode(c.root, parent, fn)
}

func visitNode(n *model.Node, parent [16]float32, fn func(*model.Node, [16]float32)) {
	if !n.Visible {
		return
	}
	var local, world [16]float32
	n.LocalMatrix(local[:])
	common.Mul4(world[:], parent[:], local[:])
	fn(n, world)
	for _, child := range n.Children() {
		visitNode(child, world, fn)
	}
}

func (c *composer) Name() string {
	return "scene"
}

func (c *composer) Params() []params.Param {
	pos := c.cam.Position()
	c.params.Set(ParamCameraPositionX, float64(pos[0]))
	c.params.Set(ParamCameraPositionY, float64(pos[1]))
	c.params.Set(ParamCameraPositionZ, float64(pos[2]))
	return c.params.List()
}

func (c *composer) SetParam(name string, v any) (params.Param, error) {
	p, err := c.params.Set(name, v)
	if err != nil {
		return p, err
	}

	switch name {
	case ParamTruckPositionX:
		c.mu.Lock()
		c.vehicle.Position[0] = float32(p.Number)
		c.mu.Unlock()
	case ParamCameraPositionX, ParamCameraPositionY, ParamCameraPositionZ:
		pos := c.cam.Position()
		axis := map[string]int{ParamCameraPositionX: 0, ParamCameraPositionY: 1, ParamCameraPositionZ: 2}[name]
		pos[axis] = float32(p.Number)
		c.cam.SetPosition(pos[0], pos[1], pos[2])
	case ParamPointLight:
		c.pointLight.SetEnabled(p.Bool)
	}
	c.logger.Debug().Str("param", name).Interface("value", p.Value()).Msg("scene param changed")
	return p, nil
}

// sunMaterial builds the sun proxy's material.
func sunMaterial(color common.Color, opacity float32) material.Material {
	return material.NewMaterial(
		material.WithName(SunMaterialName),
		material.WithColor(material.KindTransparentMask, color),
		material.WithOpacity(opacity),
	)
}
