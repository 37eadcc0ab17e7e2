package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingShader is returned when a pipeline is created without the shaders its type requires.
var ErrMissingShader = errors.New("pipeline: missing shader")

// CreateRenderPipeline compiles the vertex and fragment shaders of p and creates the GPU render
// pipeline on the given device. The created pipeline is stored back on p.
// Bind group layouts are taken from p.BindGroupLayouts() when set, otherwise they are created from
// the merged layouts reflected from both shader stages.
//
// Parameters:
//   - device: the device to create the pipeline on
//   - p: the render pipeline description
//
// Returns:
//   - error: an error if a shader is missing or any GPU object could not be created
func CreateRenderPipeline(device *wgpu.Device, p Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return fmt.Errorf("%w: %s needs both vertex and fragment shaders", ErrMissingShader, p.PipelineKey())
	}

	vs, err := device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	pipelineLayout, err := createPipelineLayout(device, p)
	if err != nil {
		return err
	}

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(vertexShader.VertexLayouts()))
	for i := range len(vertexShader.VertexLayouts()) {
		vertexLayouts = append(vertexLayouts, vertexShader.VertexLayout(i)...)
	}

	target := wgpu.ColorTargetState{
		Format:    p.ColorFormat(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: p.EntryPoint(shader.ShaderTypeVertex),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: p.EntryPoint(shader.ShaderTypeFragment),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencilState(p),
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(created)
	return nil
}

// CreateComputePipeline compiles the compute shader of p and creates the GPU compute pipeline on
// the given device, using the entry point selected by p.EntryPoint. The created pipeline is stored back on p.
//
// Parameters:
//   - device: the device to create the pipeline on
//   - p: the compute pipeline description
//
// Returns:
//   - error: an error if the compute shader is missing or any GPU object could not be created
func CreateComputePipeline(device *wgpu.Device, p Pipeline) error {
	computeShader := p.Shader(shader.ShaderTypeCompute)
	if computeShader == nil {
		return fmt.Errorf("%w: %s needs a compute shader", ErrMissingShader, p.PipelineKey())
	}

	module, err := device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", computeShader.Key(), err)
	}
	defer module.Release()

	layout, err := createPipelineLayout(device, p)
	if err != nil {
		return err
	}

	created, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: p.EntryPoint(shader.ShaderTypeCompute),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create compute pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetComputePipeline(created)
	return nil
}

// BindGroupLayoutDescriptors returns the bind group layouts reflected from the shaders of p,
// keyed by group. Render pipelines merge the vertex and fragment layouts.
//
// Parameters:
//   - p: the pipeline description
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the reflected descriptors keyed by group index
func BindGroupLayoutDescriptors(p Pipeline) map[int]wgpu.BindGroupLayoutDescriptor {
	switch p.Type() {
	case PipelineTypeCompute:
		if s := p.Shader(shader.ShaderTypeCompute); s != nil {
			return s.BindGroupLayoutDescriptors()
		}
	case PipelineTypeRender:
		var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
		if s := p.Shader(shader.ShaderTypeVertex); s != nil {
			vertex = s.BindGroupLayoutDescriptors()
		}
		if s := p.Shader(shader.ShaderTypeFragment); s != nil {
			fragment = s.BindGroupLayoutDescriptors()
		}
		return mergeBindGroupLayouts(vertex, fragment)
	}
	return nil
}

func createPipelineLayout(device *wgpu.Device, p Pipeline) (*wgpu.PipelineLayout, error) {
	bindGroupLayouts := p.BindGroupLayouts()
	if bindGroupLayouts == nil {
		descriptors := BindGroupLayoutDescriptors(p)
		maxGroup := -1
		for g := range descriptors {
			maxGroup = max(maxGroup, g)
		}
		bindGroupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
		for g, desc := range descriptors {
			layout, err := device.CreateBindGroupLayout(&desc)
			if err != nil {
				return nil, fmt.Errorf("failed to create bind group layout for group %d of %s: %w", g, p.PipelineKey(), err)
			}
			bindGroupLayouts[g] = layout
		}
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout for %s: %w", p.PipelineKey(), err)
	}
	return layout, nil
}

// depthStencilState returns the depth state of p, or nil when the pipeline has no depth stage.
func depthStencilState(p Pipeline) *wgpu.DepthStencilState {
	if p.DepthFormat() == wgpu.TextureFormatUndefined {
		return nil
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              p.DepthFormat(),
		DepthWriteEnabled:   p.DepthWriteEnabled(),
		DepthCompare:        depthCompare,
		DepthBias:           p.DepthBias(),
		DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

// mergeBindGroupLayouts combines bind group layout descriptors from vertex and fragment shaders
// into a unified set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either shader:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one shader are included with their original visibility
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
