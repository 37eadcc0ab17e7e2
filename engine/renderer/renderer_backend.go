package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// TargetKind identifies one of the intermediate render targets owned by the backend.
type TargetKind int

const (
	// TargetDepth is the Depth32Float attachment of the scene pass.
	TargetDepth TargetKind = iota

	// TargetScene is the RGBA32Float color target the scene pass renders into and bloom reads.
	TargetScene

	// TargetPost is the RGBA32Float target the bloom composite writes and color correction samples.
	TargetPost
)

func (k TargetKind) String() string {
	switch k {
	case TargetDepth:
		return "Depth"
	case TargetScene:
		return "Scene"
	case TargetPost:
		return "Post"
	default:
		return "Unknown"
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
