package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
)

// PlanetSource is the WGSL source of the planet raymarcher. Its bind groups are declared with
// @oxy: annotations and wired by the scene from those declarations.
//
//go:embed assets/planet.wgsl
var PlanetSource string

// ErrIncompleteBindings is returned when the planet shader does not declare every group the scene wires.
var ErrIncompleteBindings = errors.New("scene: planet shader bindings incomplete")

// bindingPlan records where the planet shader expects each scene resource.
type bindingPlan struct {
	cameraGroup   int
	cameraBinding int

	terrainGroup   int
	textures       map[terrain.TextureRole]int
	samplerBinding int

	voxelGroup   int
	voxelBinding int
}

// planBindings reads the group and provider declarations of the planet shader. Every texture
// role, the terrain sampler, the camera uniform and the voxel uniform must be declared, and the
// three groups must be distinct and numbered from 0.
func planBindings(decls []shader.Annotation) (bindingPlan, error) {
	plan := bindingPlan{
		cameraGroup:    -1,
		terrainGroup:   -1,
		voxelGroup:     -1,
		samplerBinding: -1,
		textures:       make(map[terrain.TextureRole]int),
	}

	for _, d := range decls {
		if d.Group == nil || d.Binding == nil {
			continue
		}
		group, binding := *d.Group, *d.Binding

		switch d.Type {
		case shader.AnnotationTypeBindingGroup:
			switch d.Args[2] {
			case shader.AnnotationArgCamera:
				plan.cameraGroup, plan.cameraBinding = group, binding
			case shader.AnnotationArgVoxelSettings:
				plan.voxelGroup, plan.voxelBinding = group, binding
			}
		case shader.AnnotationTypeProvider:
			if d.Args[0] != shader.AnnotationArgTerrain || len(d.Args) < 2 {
				continue
			}
			if plan.terrainGroup >= 0 && plan.terrainGroup != group {
				return plan, fmt.Errorf("%w: terrain bindings span groups %d and %d", ErrIncompleteBindings, plan.terrainGroup, group)
			}
			plan.terrainGroup = group
			if d.Args[1] == shader.AnnotationArgTerrainSampler {
				plan.samplerBinding = binding
			} else {
				plan.textures[terrain.TextureRole(d.Args[1])] = binding
			}
		}
	}

	if plan.cameraGroup < 0 {
		return plan, fmt.Errorf("%w: no camera uniform", ErrIncompleteBindings)
	}
	if plan.voxelGroup < 0 {
		return plan, fmt.Errorf("%w: no voxel settings uniform", ErrIncompleteBindings)
	}
	if plan.samplerBinding < 0 {
		return plan, fmt.Errorf("%w: no terrain sampler", ErrIncompleteBindings)
	}
	for _, role := range terrain.TextureRoles {
		if _, ok := plan.textures[role]; !ok {
			return plan, fmt.Errorf("%w: no %s binding", ErrIncompleteBindings, role)
		}
	}

	groups := plan.groups()
	sort.Ints(groups)
	for i, g := range groups {
		if g != i {
			return plan, fmt.Errorf("%w: groups %v are not 0..%d", ErrIncompleteBindings, plan.groups(), len(groups)-1)
		}
	}
	return plan, nil
}

// groups returns the camera, terrain and voxel group indices in that order.
func (p bindingPlan) groups() []int {
	return []int{p.cameraGroup, p.terrainGroup, p.voxelGroup}
}
