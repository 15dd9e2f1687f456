package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

// Uniform block sizes of the base pass, matching the embedded WGSL structs.
const (
	cameraUniformSize   = 80
	lightUniformSize    = 32
	nodeUniformSize     = 64
	materialUniformSize = 32
)

// renderTarget is one offscreen color buffer of the chain.
type renderTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	// input binds the view and the shared sampler for the stage that reads it.
	input *wgpu.BindGroup
}

func (t *renderTarget) release() {
	if t.input != nil {
		t.input.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	*t = renderTarget{}
}

type meshBuffers struct {
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	indexCount uint32
}

func (m meshBuffers) release() {
	if m.vertex != nil {
		m.vertex.Release()
		m.index.Release()
	}
}

// drawBinding holds the per-draw uniforms of one base pass draw slot.
type drawBinding struct {
	node     *wgpu.Buffer
	material *wgpu.Buffer
	group    *wgpu.BindGroup
}

// postStage holds the GPU objects of one post-processing pass.
type postStage struct {
	pipeline *wgpu.RenderPipeline
	uniform  *wgpu.Buffer
	size     uint64
	group    *wgpu.BindGroup
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color
	width, height int

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	targets      [2]renderTarget
	sampler      *wgpu.Sampler

	frameLayout   *wgpu.BindGroupLayout
	drawLayout    *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout
	inputLayout   *wgpu.BindGroupLayout
	uniformLayout *wgpu.BindGroupLayout

	opaquePipeline      *wgpu.RenderPipeline
	transparentPipeline *wgpu.RenderPipeline

	cameraBuffer *wgpu.Buffer
	lightBuffer  *wgpu.Buffer
	frameGroup   *wgpu.BindGroup

	meshes     map[string]meshBuffers
	geometries map[*model.MeshData]meshBuffers
	draws      []drawBinding
	textures   map[string]*wgpu.BindGroup
	white      *wgpu.BindGroup
	post       map[string]*postStage

	logger zerolog.Logger
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, clearColor wgpu.Color, logger zerolog.Logger) RendererBackend {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  clearColor,
		meshes:      make(map[string]meshBuffers),
		geometries:  make(map[*model.MeshData]meshBuffers),
		textures:    make(map[string]*wgpu.BindGroup),
		post:        make(map[string]*postStage),
		logger:      logger,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Station Device",
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.createSharedResources(); err != nil {
		panic(err)
	}
	return b
}

// createSharedResources builds the size-independent layouts, buffers and pipelines.
func (b *wgpuRendererBackendImpl) createSharedResources() error {
	var err error
	vertexFragment := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	if b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, vertexFragment, cameraUniformSize),
			uniformEntry(1, wgpu.ShaderStageFragment, lightUniformSize),
		},
	}); err != nil {
		return fmt.Errorf("creating frame layout: %w", err)
	}
	if b.drawLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Draw Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex, nodeUniformSize),
			uniformEntry(1, wgpu.ShaderStageFragment, materialUniformSize),
		},
	}); err != nil {
		return fmt.Errorf("creating draw layout: %w", err)
	}
	if b.textureLayout, err = b.device.CreateBindGroupLayout(samplerLayout("Texture Layout")); err != nil {
		return fmt.Errorf("creating texture layout: %w", err)
	}
	if b.inputLayout, err = b.device.CreateBindGroupLayout(samplerLayout("Input Layout")); err != nil {
		return fmt.Errorf("creating input layout: %w", err)
	}
	if b.uniformLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Post Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{uniformEntry(0, wgpu.ShaderStageFragment, 0)},
	}); err != nil {
		return fmt.Errorf("creating post uniform layout: %w", err)
	}

	if b.sampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}); err != nil {
		return fmt.Errorf("creating sampler: %w", err)
	}

	if b.cameraBuffer, err = b.uniformBuffer("Camera Buffer", cameraUniformSize); err != nil {
		return err
	}
	if b.lightBuffer, err = b.uniformBuffer("Light Buffer", lightUniformSize); err != nil {
		return err
	}
	if b.frameGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: b.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.cameraBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.lightBuffer, Size: wgpu.WholeSize},
		},
	}); err != nil {
		return fmt.Errorf("creating frame bind group: %w", err)
	}

	if b.white, err = b.uploadTexture("white", 1, 1, []byte{255, 255, 255, 255}, false); err != nil {
		return err
	}

	if b.opaquePipeline, err = b.createBasePipeline(false); err != nil {
		return err
	}
	if b.transparentPipeline, err = b.createBasePipeline(true); err != nil {
		return err
	}
	return nil
}

func uniformEntry(binding uint32, visibility wgpu.ShaderStage, minSize uint64) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: minSize,
		},
	}
}

func samplerLayout(label string) *wgpu.BindGroupLayoutDescriptor {
	return &wgpu.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	}
}

func (b *wgpuRendererBackendImpl) uniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", label, err)
	}
	return buf, nil
}

// createBasePipeline builds the scene pipeline. The transparent variant blends over the opaque
// result and leaves depth untouched.
func (b *wgpuRendererBackendImpl) createBasePipeline(transparent bool) (*wgpu.RenderPipeline, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "base",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: pipeline.BaseProgram},
	})
	if err != nil {
		return nil, fmt.Errorf("compiling base shader: %w", err)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "base",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.drawLayout, b.textureLayout},
	})
	if err != nil {
		return nil, err
	}

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	label := "base opaque"
	if transparent {
		label = "base transparent"
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: VertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: !transparent,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s pipeline: %w", label, err)
	}
	return created, nil
}

// createPostStage builds the pipeline of a fullscreen post-processing pass.
func (b *wgpuRendererBackendImpl) createPostStage(name, source string) (*postStage, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, fmt.Errorf("compiling %s shader: %w", name, err)
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.inputLayout, b.uniformLayout},
	})
	if err != nil {
		return nil, err
	}
	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s pipeline: %w", name, err)
	}
	return &postStage{pipeline: created}, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height

	if b.depthView != nil {
		b.depthView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	for i := range b.targets {
		b.targets[i].release()
		if err := b.createTarget(&b.targets[i], i, width, height); err != nil {
			panic(err)
		}
	}
}

// createTarget allocates one ping-pong color buffer and its input bind group.
func (b *wgpuRendererBackendImpl) createTarget(t *renderTarget, index, width, height int) error {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: fmt.Sprintf("Chain Target %d", index),
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	input, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("Chain Input %d", index),
		Layout: b.inputLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return err
	}
	*t = renderTarget{texture: tex, view: view, input: input}
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeMailbox:
		b.presentMode = wgpu.PresentModeMailbox
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) RegisterMesh(key string, geometry Geometry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	mesh, err := b.uploadGeometry(key, geometry)
	if err != nil {
		return err
	}
	if old, ok := b.meshes[key]; ok {
		old.release()
	}
	b.meshes[key] = mesh
	return nil
}

// uploadGeometry copies packed geometry into new vertex and index buffers.
func (b *wgpuRendererBackendImpl) uploadGeometry(label string, geometry Geometry) (meshBuffers, error) {
	if len(geometry.Vertices) == 0 || len(geometry.Indices) == 0 {
		return meshBuffers{}, errors.New("mesh has no geometry")
	}
	vertex, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(geometry.Vertices)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return meshBuffers{}, err
	}
	b.queue.WriteBuffer(vertex, 0, geometry.Vertices)

	index, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(geometry.Indices)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertex.Release()
		return meshBuffers{}, err
	}
	b.queue.WriteBuffer(index, 0, geometry.Indices)
	return meshBuffers{vertex: vertex, index: index, indexCount: uint32(geometry.IndexCount)}, nil
}

// drawMesh resolves the buffers of a draw. Decoded geometry is uploaded on first use and shared
// by every node pointing at it; registered meshes cover the sun and geometry-less models.
func (b *wgpuRendererBackendImpl) drawMesh(d pipeline.Draw) (meshBuffers, bool) {
	if d.Sun {
		mesh, ok := b.meshes[SunMeshKey]
		return mesh, ok
	}
	if d.Geometry == nil {
		mesh, ok := b.meshes[d.Node]
		return mesh, ok
	}
	if mesh, ok := b.geometries[d.Geometry]; ok {
		return mesh, true
	}
	mesh, err := b.uploadGeometry(d.Node, PackMeshData(d.Geometry))
	if err != nil {
		b.logger.Warn().Err(err).Str("node", d.Node).Msg("skipping mesh")
		mesh = meshBuffers{}
	}
	b.geometries[d.Geometry] = mesh
	return mesh, mesh.vertex != nil
}

func (b *wgpuRendererBackendImpl) Execute(frame *pipeline.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.width == 0 || b.height == 0 {
		return errors.New("surface not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()
	swap, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer swap.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	cam := frame.Camera
	light := frame.Light
	b.queue.WriteBuffer(b.cameraBuffer, 0, cam.Marshal())
	b.queue.WriteBuffer(b.lightBuffer, 0, light.Marshal())

	// current is the target holding the latest stage output.
	current := 0
	if len(frame.Stages) == 0 || frame.Stages[0].Pass != pipeline.PassBase {
		out := b.targets[current].view
		if len(frame.Stages) == 0 {
			out = swap
		}
		b.clear(encoder, out)
	}

	for i, stage := range frame.Stages {
		last := i == len(frame.Stages)-1
		next := 1 - current
		out := swap
		if !last {
			out = b.targets[next].view
		}

		if stage.Pass == pipeline.PassBase {
			if !last {
				out = b.targets[current].view
			}
			if err := b.encodeBase(encoder, out, frame.Draws); err != nil {
				return err
			}
			continue
		}
		if err := b.encodePost(encoder, stage, b.targets[current].input, out); err != nil {
			return err
		}
		current = next
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) clear(encoder *wgpu.CommandEncoder, out *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       out,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clearColor,
		}},
	})
	pass.End()
	pass.Release()
}

// encodeBase draws every registered mesh of the frame. Draws without uploaded geometry are
// skipped; the scene graph carries geometry references only.
func (b *wgpuRendererBackendImpl) encodeBase(encoder *wgpu.CommandEncoder, out *wgpu.TextureView, draws []pipeline.Draw) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       out,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	defer pass.Release()

	pass.SetBindGroup(0, b.frameGroup, nil)
	var bound *wgpu.RenderPipeline
	for i, d := range draws {
		mesh, ok := b.drawMesh(d)
		if !ok {
			continue
		}

		binding, err := b.drawSlot(i)
		if err != nil {
			pass.End()
			return err
		}
		world, params := d.World, d.Material
		b.queue.WriteBuffer(binding.node, 0, world.Marshal())
		b.queue.WriteBuffer(binding.material, 0, params.Marshal())

		texGroup, err := b.textureGroup(d.Texture)
		if err != nil {
			pass.End()
			return err
		}

		want := b.opaquePipeline
		if d.Transparent {
			want = b.transparentPipeline
		}
		if want != bound {
			pass.SetPipeline(want)
			bound = want
		}
		pass.SetBindGroup(1, binding.group, nil)
		pass.SetBindGroup(2, texGroup, nil)
		pass.SetVertexBuffer(0, mesh.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mesh.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(mesh.indexCount, 1, 0, 0, 0)
	}
	pass.End()
	return nil
}

// drawSlot returns the uniform slot of the i-th draw, growing the slot list as needed.
func (b *wgpuRendererBackendImpl) drawSlot(i int) (drawBinding, error) {
	for len(b.draws) <= i {
		label := fmt.Sprintf("Draw %d", len(b.draws))
		node, err := b.uniformBuffer(label+" Node", nodeUniformSize)
		if err != nil {
			return drawBinding{}, err
		}
		mat, err := b.uniformBuffer(label+" Material", materialUniformSize)
		if err != nil {
			node.Release()
			return drawBinding{}, err
		}
		group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " Bind Group",
			Layout: b.drawLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: node, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: mat, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			node.Release()
			mat.Release()
			return drawBinding{}, err
		}
		b.draws = append(b.draws, drawBinding{node: node, material: mat, group: group})
	}
	return b.draws[i], nil
}

// textureGroup returns the bind group of a baked texture, uploading it on first use.
func (b *wgpuRendererBackendImpl) textureGroup(t texture.Texture) (*wgpu.BindGroup, error) {
	if t == nil {
		return b.white, nil
	}
	if g, ok := b.textures[t.Name()]; ok {
		return g, nil
	}
	staging := t.Staging()
	g, err := b.uploadTexture(t.Name(), staging.Width, staging.Height, staging.Pixels, staging.SRGB)
	if err != nil {
		return nil, err
	}
	b.textures[t.Name()] = g
	b.logger.Debug().Str("texture", t.Name()).Uint32("width", staging.Width).Uint32("height", staging.Height).Msg("texture uploaded")
	return g, nil
}

func (b *wgpuRendererBackendImpl) uploadTexture(label string, width, height uint32, pixels []byte, srgb bool) (*wgpu.BindGroup, error) {
	format := wgpu.TextureFormatRGBA8Unorm
	if srgb {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating texture %s: %w", label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: b.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.sampler},
		},
	})
}

// encodePost draws one fullscreen post-processing pass reading input and writing out.
func (b *wgpuRendererBackendImpl) encodePost(encoder *wgpu.CommandEncoder, stage pipeline.Stage, input *wgpu.BindGroup, out *wgpu.TextureView) error {
	ps, ok := b.post[stage.Pass]
	if !ok {
		var err error
		if ps, err = b.createPostStage(stage.Pass, stage.Shader); err != nil {
			return err
		}
		b.post[stage.Pass] = ps
	}

	size := uint64(max(len(stage.Uniform), 16))
	if ps.uniform == nil || ps.size != size {
		if ps.uniform != nil {
			ps.group.Release()
			ps.uniform.Release()
		}
		buf, err := b.uniformBuffer(stage.Pass+" Uniform", size)
		if err != nil {
			return err
		}
		group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   stage.Pass + " Uniform Bind Group",
			Layout:  b.uniformLayout,
			Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: buf, Size: wgpu.WholeSize}},
		})
		if err != nil {
			buf.Release()
			return err
		}
		ps.uniform, ps.size, ps.group = buf, size, group
	}
	if len(stage.Uniform) > 0 {
		b.queue.WriteBuffer(ps.uniform, 0, stage.Uniform)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       out,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clearColor,
		}},
	})
	defer pass.Release()
	pass.SetPipeline(ps.pipeline)
	pass.SetBindGroup(0, input, nil)
	pass.SetBindGroup(1, ps.group, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.targets {
		b.targets[i].release()
	}
	for _, m := range b.meshes {
		m.release()
	}
	for _, m := range b.geometries {
		m.release()
	}
	for _, d := range b.draws {
		d.group.Release()
		d.node.Release()
		d.material.Release()
	}
	for _, g := range b.textures {
		g.Release()
	}
	for _, ps := range b.post {
		if ps.group != nil {
			ps.group.Release()
			ps.uniform.Release()
		}
		ps.pipeline.Release()
	}
	if b.depthView != nil {
		b.depthView.Release()
		b.depthTexture.Release()
	}
	b.meshes = map[string]meshBuffers{}
	b.geometries = map[*model.MeshData]meshBuffers{}
	b.draws = nil
	b.textures = map[string]*wgpu.BindGroup{}
	b.post = map[string]*postStage{}
	b.device.Release()
}
