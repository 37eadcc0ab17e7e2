package scene

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/camera"
	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/Carmen-Shannon/oxy-planet/engine/input"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/overlay"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
	"github.com/cogentcore/webgpu/wgpu"
)

// PlanetPipelineKey is the key the planet render pipeline is registered under.
const PlanetPipelineKey = "planet"

// ErrMissingTexture is returned when the terrain has no staged texture for a role the planet shader binds.
var ErrMissingTexture = errors.New("scene: terrain texture not staged")

// Resources is the part of the renderer a scene uses to create its GPU resources.
type Resources interface {
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.Mutex

	name    string
	camera  camera.Camera
	terrain terrain.Terrain
	input   input.State

	plan     bindingPlan
	pipeline pipeline.Pipeline
	mesh     bind_group_provider.BindGroupProvider
	groups   []bind_group_provider.BindGroupProvider

	correction color_correction.Uniform
	elapsed    float32

	// latest uniform uploads, replaced by Update and taken by Frame
	cameraWrite *bind_group_provider.BufferWrite
	voxelWrite  *bind_group_provider.BufferWrite
}

// Scene is the voxel planet: a full screen quad raymarched by the planet shader, the fly camera
// looking at it, and the terrain textures and voxel settings it samples.
//
// A frame is produced in two calls from the render goroutine: Update advances the camera and
// applies HUD keys, Frame hands the renderer everything it needs to draw. Settings may be applied
// from any goroutine.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Terrain returns the planet's terrain resources.
	Terrain() terrain.Terrain

	// Input returns the input state the scene reads each Update.
	Input() input.State

	// Pipeline returns the planet render pipeline.
	Pipeline() pipeline.Pipeline

	// Correction returns the color correction parameters the scene draws with.
	//
	// Returns:
	//   - color_correction.Uniform: the current parameters
	Correction() color_correction.Uniform

	// SetCorrection replaces the color correction parameters from the next frame.
	//
	// Parameters:
	//   - u: the new parameters
	SetCorrection(u color_correction.Uniform)

	// ApplySettings applies the voxel, color correction and camera lens sections of reloaded settings.
	// The voxel level is clamped to 1..7.
	//
	// Parameters:
	//   - s: the settings to apply
	ApplySettings(s config.Settings)

	// Update advances the scene by one frame. The camera moves according to the input state,
	// '[' and ']' lower and raise the voxel level, and the camera and voxel uniforms are staged
	// for upload. The input state is advanced at the end so key edges are seen exactly once.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Update(deltaTime float32)

	// Frame returns the renderer input of the current frame and hands over the staged uploads.
	//
	// Returns:
	//   - renderer.FrameInput: the scene draw, its uploads, the color correction and the HUD state
	Frame() renderer.FrameInput

	// Release frees the GPU resources the scene's providers hold.
	Release()
}

var _ Scene = &scene{}

// NewScene creates the planet scene and its GPU resources: the terrain textures and sampler,
// the camera and voxel uniforms, the quad mesh and the planet pipeline. Bind groups are wired
// from the @oxy: declarations of the planet shader.
//
// Parameters:
//   - res: the renderer the resources are created on
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the scene
//   - error: an error if the shader declarations are incomplete or a resource could not be created
func NewScene(res Resources, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		mu:         &sync.Mutex{},
		name:       "planet",
		correction: color_correction.DefaultUniform(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.camera == nil {
		s.camera = camera.NewCamera()
	}
	if s.terrain == nil {
		s.terrain = terrain.NewTerrain()
	}
	if s.input == nil {
		s.input = input.NewState()
	}
	s.mesh = bind_group_provider.NewBindGroupProvider(s.name + "_quad")

	if err := s.setup(res); err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.name, err)
	}
	log.Printf("[Scene] %s ready: camera group %d, terrain group %d, voxel group %d",
		s.name, s.plan.cameraGroup, s.plan.terrainGroup, s.plan.voxelGroup)
	return s, nil
}

func (s *scene) setup(res Resources) error {
	vs := shader.NewShaderFromSource(PlanetPipelineKey+"_vs", shader.ShaderTypeVertex, PlanetSource)
	fs := shader.NewShaderFromSource(PlanetPipelineKey+"_fs", shader.ShaderTypeFragment, PlanetSource)

	plan, err := planBindings(fs.Declarations())
	if err != nil {
		return err
	}
	s.plan = plan

	descriptors := pipeline.BindGroupLayoutDescriptors(NewPipeline(vs, fs))

	terrainProvider := s.terrain.BindGroupProvider()
	for role, binding := range plan.textures {
		tex, ok := s.terrain.Texture(role)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTexture, role)
		}
		if err := res.InitTextureView(terrainProvider, binding, tex); err != nil {
			return fmt.Errorf("terrain texture %s: %w", role, err)
		}
	}
	if err := res.InitSampler(terrainProvider, plan.samplerBinding, s.terrain.Sampler()); err != nil {
		return fmt.Errorf("terrain sampler: %w", err)
	}

	s.groups = make([]bind_group_provider.BindGroupProvider, 3)
	s.groups[plan.cameraGroup] = s.camera.BindGroupProvider()
	s.groups[plan.terrainGroup] = terrainProvider
	s.groups[plan.voxelGroup] = s.terrain.VoxelProvider()

	layouts := make([]*wgpu.BindGroupLayout, len(s.groups))
	for group, provider := range s.groups {
		if err := res.InitBindGroup(provider, descriptors[group], nil, nil); err != nil {
			return fmt.Errorf("bind group %d (%s): %w", group, provider.Label(), err)
		}
		layouts[group] = provider.BindGroupLayout()
	}

	indices := terrain.QuadIndices()
	if err := res.InitMeshBuffers(s.mesh, terrain.MarshalQuadVertices(terrain.QuadVertices()), terrain.MarshalIndices(indices), len(indices)); err != nil {
		return fmt.Errorf("quad mesh: %w", err)
	}

	s.pipeline = NewPipeline(vs, fs, pipeline.WithBindGroupLayouts(layouts...))
	return res.RegisterPipelines(s.pipeline)
}

// NewPipeline describes the planet render pipeline: back-face culled counter-clockwise triangles,
// a less Depth32Float test with writes, and an RGBA32Float target without blending.
//
// Parameters:
//   - vs, fs: the planet vertex and fragment shaders
//   - options: extra pipeline options, applied last
//
// Returns:
//   - pipeline.Pipeline: the pipeline description
func NewPipeline(vs, fs shader.Shader, options ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithEntryPoint(shader.ShaderTypeVertex, "vs_main"),
		pipeline.WithEntryPoint(shader.ShaderTypeFragment, "fs_main"),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleList),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithDepthTestEnabled(true),
		pipeline.WithDepthWriteEnabled(true),
		pipeline.WithDepthFormat(wgpu.TextureFormatDepth32Float),
		pipeline.WithColorFormat(wgpu.TextureFormatRGBA32Float),
		pipeline.WithBlendEnabled(false),
	}
	return pipeline.NewPipeline(PlanetPipelineKey, pipeline.PipelineTypeRender, append(opts, options...)...)
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Terrain() terrain.Terrain {
	return s.terrain
}

func (s *scene) Input() input.State {
	return s.input
}

func (s *scene) Pipeline() pipeline.Pipeline {
	return s.pipeline
}

func (s *scene) Correction() color_correction.Uniform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correction
}

func (s *scene) SetCorrection(u color_correction.Uniform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correction = u
}

func (s *scene) ApplySettings(settings config.Settings) {
	s.terrain.SetVoxelSettings(VoxelSettingsFrom(s.terrain.VoxelSettings(), settings.Voxel))
	s.SetCorrection(CorrectionFrom(settings.ColorCorrection))

	s.camera.SetFov(fovRadians(settings.Camera.FovDegrees))
	s.camera.SetNear(settings.Camera.Near)
	s.camera.SetFar(settings.Camera.Far)
}

func (s *scene) Update(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.camera.Update(s.input, deltaTime)

	if s.input.IsKeyPressed(common.KeyLeftBracket) {
		log.Printf("[Scene] voxel level %d", s.terrain.StepVoxelLevel(-1))
	}
	if s.input.IsKeyPressed(common.KeyRightBracket) {
		log.Printf("[Scene] voxel level %d", s.terrain.StepVoxelLevel(1))
	}

	s.elapsed += deltaTime
	u := s.camera.Uniform(s.elapsed)
	s.cameraWrite = &bind_group_provider.BufferWrite{
		Provider: s.camera.BindGroupProvider(),
		Binding:  s.plan.cameraBinding,
		Data:     u.Marshal(),
	}

	if v, dirty := s.terrain.TakeVoxelSettings(); dirty {
		s.voxelWrite = &bind_group_provider.BufferWrite{
			Provider: s.terrain.VoxelProvider(),
			Binding:  s.plan.voxelBinding,
			Data:     v.Marshal(),
		}
	}

	s.input.Update()
}

func (s *scene) Frame() renderer.FrameInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	writes := bind_group_provider.Pending(s.cameraWrite, s.voxelWrite)
	s.cameraWrite, s.voxelWrite = nil, nil

	correction := s.correction
	return renderer.FrameInput{
		Pipeline:   s.pipeline,
		Mesh:       s.mesh,
		BindGroups: s.groups,
		Writes:     writes,
		Correction: &correction,
		Overlay: overlay.State{
			VoxelLevel: s.terrain.VoxelSettings().VoxelLevel,
			Correction: correction,
		},
	}
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range append([]bind_group_provider.BindGroupProvider{s.mesh}, s.groups...) {
		if p != nil {
			p.Release()
		}
	}
}
