// package layout holds the fixed bind group layout contract every sprite pipeline is built against.
package layout

import (
	"fmt"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Group identifies one of the four bind group slots. The numeric value is the @group index in WGSL.
type Group int

const (
	// GroupTexture binds the sprite sheet texture and its sampler.
	GroupTexture Group = iota

	// GroupCamera binds the camera uniform.
	GroupCamera

	// GroupLight binds the point light and ambient light uniforms.
	GroupLight

	// GroupSpriteAnimation binds the animation frame table and progress uniform of a batch.
	GroupSpriteAnimation

	// GroupCount is the number of groups in the contract.
	GroupCount
)

// String returns the group name used in labels and errors.
func (g Group) String() string {
	switch g {
	case GroupTexture:
		return "texture"
	case GroupCamera:
		return "camera"
	case GroupLight:
		return "light"
	case GroupSpriteAnimation:
		return "sprite_animation"
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// Set is the immutable, ordered set of bind group layouts built once at renderer construction.
type Set struct {
	layouts [GroupCount]gpu.BindGroupLayout
}

// NewSet creates the four layouts on device.
//
// Parameters:
//   - device: the device to create the layouts on
//
// Returns:
//   - *Set: the layout set
//   - error: error if any layout could not be created
func NewSet(device gpu.Device) (*Set, error) {
	s := &Set{}
	for g := GroupTexture; g < GroupCount; g++ {
		desc := Descriptor(g)
		l, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("failed to create %s bind group layout: %w", g, err)
		}
		s.layouts[g] = l
	}
	return s, nil
}

// Layout returns the layout of group g, or nil for an out of range group.
func (s *Set) Layout(g Group) gpu.BindGroupLayout {
	if g < 0 || g >= GroupCount {
		return nil
	}
	return s.layouts[g]
}

func (s *Set) Texture() gpu.BindGroupLayout         { return s.layouts[GroupTexture] }
func (s *Set) Camera() gpu.BindGroupLayout          { return s.layouts[GroupCamera] }
func (s *Set) Light() gpu.BindGroupLayout           { return s.layouts[GroupLight] }
func (s *Set) SpriteAnimation() gpu.BindGroupLayout { return s.layouts[GroupSpriteAnimation] }

// Layouts returns the layouts in group order. The returned slice is a copy.
func (s *Set) Layouts() []gpu.BindGroupLayout {
	out := make([]gpu.BindGroupLayout, GroupCount)
	copy(out, s.layouts[:])
	return out
}

// Validate checks that layouts is exactly this set, in order.
//
// Parameters:
//   - pipeline: the pipeline label reported in the error
//   - layouts: the layouts a pipeline is about to be created with
//
// Returns:
//   - error: a *ConfigurationError describing the first mismatch, nil if the layouts match
func (s *Set) Validate(pipeline string, layouts []gpu.BindGroupLayout) error {
	if len(layouts) != int(GroupCount) {
		return &ConfigurationError{
			Pipeline: pipeline,
			Group:    -1,
			Reason:   fmt.Sprintf("expected %d bind group layouts, got %d", GroupCount, len(layouts)),
		}
	}
	for i, l := range layouts {
		if l != s.layouts[i] {
			got := "<nil>"
			if l != nil {
				got = l.Label()
			}
			return &ConfigurationError{
				Pipeline: pipeline,
				Group:    Group(i),
				Reason:   fmt.Sprintf("expected layout %q, got %q", s.layouts[i].Label(), got),
			}
		}
	}
	return nil
}

// Release frees every layout in the set.
func (s *Set) Release() {
	for i, l := range s.layouts {
		if l != nil {
			l.Release()
			s.layouts[i] = nil
		}
	}
}

// Descriptor returns the layout descriptor of group g.
//
// Parameters:
//   - g: the group
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the descriptor, empty for an unknown group
func Descriptor(g Group) wgpu.BindGroupLayoutDescriptor {
	switch g {
	case GroupTexture:
		return wgpu.BindGroupLayoutDescriptor{
			Label: "texture_bind_group_layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
						Multisampled:  false,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
			},
		}
	case GroupCamera:
		return wgpu.BindGroupLayoutDescriptor{
			Label: "camera_bind_group_layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: CameraUniformSize,
					},
				},
			},
		}
	case GroupLight:
		return wgpu.BindGroupLayoutDescriptor{
			Label: "light_bind_group_layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: PointLightUniformSize,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: AmbientLightUniformSize,
					},
				},
			},
		}
	case GroupSpriteAnimation:
		return wgpu.BindGroupLayoutDescriptor{
			Label: "sprite_animation_bind_group_layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type: wgpu.BufferBindingTypeReadOnlyStorage,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: AnimationUniformSize,
					},
				},
			},
		}
	}
	return wgpu.BindGroupLayoutDescriptor{}
}

// Uniform sizes in bytes, matching the structs declared in the sprite shader.
const (
	CameraUniformSize       = 80
	PointLightUniformSize   = 48
	AmbientLightUniformSize = 48
	AnimationUniformSize    = 16
)
