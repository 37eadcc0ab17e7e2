package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite is one queued uniform upload, such as the camera or voxel settings block,
// flushed by the Renderer before the frame's scene pass is encoded.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Target returns the buffer the write lands in, or nil when the provider has no buffer
// at that binding yet.
func (w BufferWrite) Target() *wgpu.Buffer {
	if w.Provider == nil || len(w.Data) == 0 {
		return nil
	}
	return w.Provider.Buffer(w.Binding)
}

// Pending collects the queued writes that have a provider and data, in order, skipping nil slots.
func Pending(writes ...*BufferWrite) []BufferWrite {
	var out []BufferWrite
	for _, w := range writes {
		if w == nil || w.Provider == nil || len(w.Data) == 0 {
			continue
		}
		out = append(out, *w)
	}
	return out
}
