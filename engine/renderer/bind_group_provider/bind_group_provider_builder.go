package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption configures a BindGroupProvider in NewBindGroupProvider.
// Post-processing passes that create their own GPU objects hand them over through these options,
// so the provider owns and releases them alongside the resources the Renderer creates.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroup hands an already created bind group to the provider.
//
// Parameters:
//   - bg: the bind group, released by the provider
//
// Returns:
//   - BindGroupProviderOption: the option
func WithBindGroup(bg *wgpu.BindGroup) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroup = bg
	}
}

// WithBindGroupLayout hands an already created bind group layout to the provider.
// Color correction keeps its layout here so the bind group can be rebuilt on every resize.
//
// Parameters:
//   - bgl: the bind group layout, released by the provider
//
// Returns:
//   - BindGroupProviderOption: the option
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithBuffer stores a uniform buffer under a binding index, e.g. the bloom settings uniform at binding 0.
//
// Parameters:
//   - binding: the binding index the buffer is bound at
//   - buf: the buffer, released by the provider
//
// Returns:
//   - BindGroupProviderOption: the option
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithVertexBuffer stores a vertex buffer for providers that only feed a draw call, such as the overlay mesh.
//
// Parameters:
//   - buf: the vertex buffer, released by the provider
//
// Returns:
//   - BindGroupProviderOption: the option
func WithVertexBuffer(buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = buf
	}
}
