package terrain

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// noiseVolumeHeaderSize is the number of header bytes preceding the texels in a noise volume file.
	noiseVolumeHeaderSize = 20

	// NoiseVolumeSize is the side length of the cubic noise volume in texels.
	NoiseVolumeSize = 32

	// proceduralTextureSize is the side length of generated 2D fallback textures.
	proceduralTextureSize = 256
)

// ErrShortNoiseVolume is returned when a noise volume file holds fewer texels than a full 32³ cube.
var ErrShortNoiseVolume = errors.New("noise volume is truncated")

// TextureFiles names the file of each terrain texture, relative to the asset directory.
type TextureFiles struct {
	Noise0 string
	Noise1 string
	Grain  string
	Dirt   string
}

// DefaultTextureFiles returns the file names of the terrain asset pack.
//
// Returns:
//   - TextureFiles: the default file names
func DefaultTextureFiles() TextureFiles {
	return TextureFiles{
		Noise0: "rgbnoise.png",
		Noise1: "graynoise_32x32x32_cube.bin",
		Grain:  "stone.png",
		Dirt:   "mud.png",
	}
}

func (f TextureFiles) byRole() map[TextureRole]string {
	return map[TextureRole]string{
		TextureRoleNoise0: f.Noise0,
		TextureRoleNoise1: f.Noise1,
		TextureRoleGrain:  f.Grain,
		TextureRoleDirt:   f.Dirt,
	}
}

// LoadOptions configures LoadTextures.
type LoadOptions struct {
	// Dir is the asset directory the texture files are resolved against.
	Dir string
	// Files names each texture file.
	Files TextureFiles
	// MaxTextureSize bounds the longest side of decoded 2D textures, 0 for no limit.
	MaxTextureSize int
	// Workers is the number of decode workers, 0 selects one per spare CPU.
	Workers int
}

// LoadTextures decodes the four terrain textures concurrently on a worker pool, one task per file.
// A missing file is replaced by a generated noise texture of the same role and format, and the
// substitution is logged. Any other failure aborts the load and names the file.
//
// Parameters:
//   - opts: the asset directory, file names and decode limits
//
// Returns:
//   - map[TextureRole]common.TextureStagingData: the staged textures keyed by role
//   - error: error if a present file could not be read or decoded
func LoadTextures(opts LoadOptions) (map[TextureRole]common.TextureStagingData, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	files := opts.Files.byRole()

	pool := worker.NewDynamicWorkerPool(min(workers, len(files)), len(files), time.Second)
	defer pool.Stop()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		textures = make(map[TextureRole]common.TextureStagingData, len(files))
		errs     = make(map[TextureRole]error)
	)
	for i, role := range TextureRoles {
		path := filepath.Join(opts.Dir, files[role])
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				tex, err := loadTexture(role, path, opts.MaxTextureSize)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs[role] = err
					return nil, err
				}
				textures[role] = tex
				return tex, nil
			},
		})
	}
	wg.Wait()

	// report in binding order so the error is deterministic
	for _, role := range TextureRoles {
		if err, ok := errs[role]; ok {
			return nil, fmt.Errorf("failed to load terrain texture %q: %w", files[role], err)
		}
	}
	return textures, nil
}

// loadTexture reads a single terrain texture, falling back to generated noise when the file does not exist.
func loadTexture(role TextureRole, path string, maxSize int) (common.TextureStagingData, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[Terrain] %s not found, using generated %s", path, role)
		return ProceduralTexture(role), nil
	}
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer f.Close()

	if role == TextureRoleNoise1 {
		return ParseNoiseVolume(f)
	}
	return common.DecodeImage(f, maxSize)
}

// ParseNoiseVolume reads a 32x32x32 single channel noise volume: a 20-byte header followed by
// 32768 texels, one byte each, x fastest then y then z. Trailing bytes are ignored.
//
// Parameters:
//   - r: the volume file contents
//
// Returns:
//   - common.TextureStagingData: an R8Unorm 3D texture of 32³ texels
//   - error: ErrShortNoiseVolume if the stream ends before the last texel
func ParseNoiseVolume(r io.Reader) (common.TextureStagingData, error) {
	if _, err := io.CopyN(io.Discard, r, noiseVolumeHeaderSize); err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: header: %v", ErrShortNoiseVolume, err)
	}
	texels := make([]byte, NoiseVolumeSize*NoiseVolumeSize*NoiseVolumeSize)
	if _, err := io.ReadFull(r, texels); err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: %v", ErrShortNoiseVolume, err)
	}
	return common.TextureStagingData{
		Pixels:        texels,
		Width:         NoiseVolumeSize,
		Height:        NoiseVolumeSize,
		Depth:         NoiseVolumeSize,
		Format:        wgpu.TextureFormatR8Unorm,
		BytesPerTexel: 1,
	}, nil
}

// ProceduralTexture generates a deterministic value-noise texture for a terrain role. The 3D noise
// role yields an R8Unorm 32³ volume, every other role an RGBA8UnormSrgb 256x256 image that tiles.
//
// Parameters:
//   - role: the terrain texture role to generate
//
// Returns:
//   - common.TextureStagingData: the generated texture
func ProceduralTexture(role TextureRole) common.TextureStagingData {
	seed := uint32(len(role)) * 0x9e3779b9
	for _, c := range []byte(role) {
		seed = hash32(seed ^ uint32(c))
	}

	if role == TextureRoleNoise1 {
		const n = NoiseVolumeSize
		texels := make([]byte, n*n*n)
		for z := range n {
			for y := range n {
				for x := range n {
					texels[(z*n+y)*n+x] = byte(hash32(seed^uint32(x)^uint32(y)<<10^uint32(z)<<20) >> 24)
				}
			}
		}
		return common.TextureStagingData{
			Pixels:        texels,
			Width:         n,
			Height:        n,
			Depth:         n,
			Format:        wgpu.TextureFormatR8Unorm,
			BytesPerTexel: 1,
		}
	}

	const size = proceduralTextureSize
	const cell = 16
	pixels := make([]byte, size*size*4)
	for y := range size {
		for x := range size {
			o := (y*size + x) * 4
			for c := range 3 {
				v := valueNoise(seed+uint32(c)*7919, x, y, cell, size/cell)
				pixels[o+c] = byte(v * 255)
			}
			pixels[o+3] = 255
		}
	}
	return common.TextureStagingData{
		Pixels:        pixels,
		Width:         size,
		Height:        size,
		Depth:         1,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		BytesPerTexel: 4,
	}
}

// valueNoise bilinearly interpolates hashed lattice values on a grid of period cells, so the result tiles.
func valueNoise(seed uint32, x, y, cell, period int) float32 {
	gx, gy := x/cell, y/cell
	fx := float32(x%cell) / float32(cell)
	fy := float32(y%cell) / float32(cell)
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	lattice := func(ix, iy int) float32 {
		ix, iy = ix%period, iy%period
		return float32(hash32(seed^uint32(ix)*0x85ebca6b^uint32(iy)*0xc2b2ae35)>>8) / float32(1<<24)
	}
	a := lattice(gx, gy)
	b := lattice(gx+1, gy)
	c := lattice(gx, gy+1)
	d := lattice(gx+1, gy+1)
	top := a + (b-a)*fx
	bottom := c + (d-c)*fx
	return top + (bottom-top)*fy
}

func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}
