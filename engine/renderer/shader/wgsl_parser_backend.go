package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// uniformBlockLayout lays out a uniform struct member by member: each member starts at the next
// multiple of its alignment and the block size is rounded up to the largest alignment.
// Members of nested struct type resolve through known.
//
// Parameters:
//   - ps: the struct to lay out
//   - known: layouts of structs resolved so far
//
// Returns:
//   - wgslTypeLayout: the block's size and alignment
//   - bool: false if a member type is not host-shareable here, e.g. bool or a runtime array
func uniformBlockLayout(ps parsedStruct, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		l, ok := memberLayout(f.typeName, known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(l.align, offset) + l.size
		maxAlign = max(maxAlign, l.align)
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

func memberLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if l, ok := uniformMemberLayouts[typeName]; ok {
		return l, true
	}
	l, ok := known[typeName]
	return l, ok
}

// uniformBlockLayouts resolves every struct that can back a uniform binding. Structs referencing other
// structs are retried until no more resolve, so declaration order does not matter.
//
// Parameters:
//   - structs: the struct blocks of the source
//
// Returns:
//   - map[string]wgslTypeLayout: layouts keyed by struct name, missing for structs that cannot be laid out
func uniformBlockLayouts(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	pending := append([]parsedStruct(nil), structs...)
	for len(pending) > 0 {
		var next []parsedStruct
		for _, ps := range pending {
			if l, ok := uniformBlockLayout(ps, resolved); ok {
				resolved[ps.name] = l
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

// classifyBinding decides what a declaration binds from its address space and type.
//
// Parameters:
//   - addressSpace: the var<> qualifier, empty for samplers and textures
//   - typeName: the declared type
//
// Returns:
//   - bindingKind: the binding category, bindingUnsupported for anything the kernels never declare
func classifyBinding(addressSpace, typeName string) bindingKind {
	switch {
	case addressSpace == "uniform":
		return bindingUniform
	case strings.HasPrefix(addressSpace, "storage"):
		return bindingStorageBuffer
	case addressSpace != "":
		return bindingUnsupported
	case typeName == "sampler":
		return bindingSampler
	case strings.HasPrefix(typeName, "texture_storage_2d<"):
		return bindingStorageTexture
	}
	base, param := splitTypeParams(typeName)
	if _, ok := sampledTextureDimensions[base]; ok && param == "f32" {
		return bindingSampledTexture
	}
	return bindingUnsupported
}

// layoutEntry builds the bind group layout entry for one declaration.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: the stage declaring the resource
//   - addressSpace: the var<> qualifier, empty for samplers and textures
//   - typeName: the declared type
//   - blocks: uniform block layouts, used to fill MinBindingSize
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry
//   - error: if the declaration is of a kind the renderer does not bind
func layoutEntry(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string, blocks map[string]wgslTypeLayout) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	kind := classifyBinding(addressSpace, typeName)
	switch kind {
	case bindingUniform, bindingStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		if kind == bindingStorageBuffer {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			if strings.Contains(addressSpace, "read_write") {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			}
		}
		if l, ok := memberLayout(typeName, blocks); ok {
			entry.Buffer.MinBindingSize = l.size
		}
	case bindingSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case bindingSampledTexture:
		base, _ := splitTypeParams(typeName)
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = sampledTextureDimensions[base]
	case bindingStorageTexture:
		_, params := splitTypeParams(typeName)
		format, access, _ := strings.Cut(params, ",")
		f, fok := storageTextureFormats[strings.TrimSpace(format)]
		a, aok := storageTextureAccess[strings.TrimSpace(access)]
		if !fok || !aok {
			return entry, fmt.Errorf("storage texture %q: unsupported format or access", typeName)
		}
		entry.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        a,
			Format:        f,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	default:
		return entry, fmt.Errorf("binding %d: %s type %q", binding, kind, strings.TrimSpace(addressSpace+" "+typeName))
	}
	return entry, nil
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32". Types without parameters return an empty params string.
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if before, _, found := strings.Cut(line, "//"); found {
			line = before
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments drops /* */ comments. WGSL block comments nest.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
					i++
					continue
				}
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInput reports whether a struct is fed from vertex buffers: only @location members, no @builtin.
// VertexOutput structs carry @builtin(position) and are skipped.
func isVertexInput(ps parsedStruct) bool {
	if len(ps.fields) == 0 {
		return false
	}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return false
		}
	}
	return true
}

// vertexBufferLayout packs the members of a vertex input struct tightly in declaration order.
//
// Parameters:
//   - ps: the vertex input struct
//
// Returns:
//   - wgpu.VertexBufferLayout: the per-vertex layout
//   - bool: false if a member type has no vertex format
func vertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64
	for _, f := range ps.fields {
		info, ok := vertexFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}
