package layout

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetOrder(t *testing.T) {
	set, err := NewSet(gpu.NewSoftDevice())
	require.NoError(t, err)

	layouts := set.Layouts()
	require.Len(t, layouts, 4)
	assert.Equal(t, "texture_bind_group_layout", layouts[GroupTexture].Label())
	assert.Equal(t, "camera_bind_group_layout", layouts[GroupCamera].Label())
	assert.Equal(t, "light_bind_group_layout", layouts[GroupLight].Label())
	assert.Equal(t, "sprite_animation_bind_group_layout", layouts[GroupSpriteAnimation].Label())

	assert.Same(t, set.Texture(), set.Layout(GroupTexture))
	assert.Nil(t, set.Layout(GroupCount))

	layouts[0] = nil
	assert.NotNil(t, set.Texture(), "Layouts returns a copy")
}

func TestDescriptorBindings(t *testing.T) {
	tex := Descriptor(GroupTexture)
	require.Len(t, tex.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, tex.Entries[1].Sampler.Type)

	cam := Descriptor(GroupCamera)
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex, cam.Entries[0].Visibility)

	anim := Descriptor(GroupSpriteAnimation)
	require.Len(t, anim.Entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, anim.Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, anim.Entries[1].Buffer.Type)

	assert.Empty(t, Descriptor(Group(9)).Entries)
}

func TestValidate(t *testing.T) {
	device := gpu.NewSoftDevice()
	set, err := NewSet(device)
	require.NoError(t, err)

	assert.NoError(t, set.Validate("sprite", set.Layouts()))

	var cfgErr *ConfigurationError
	err = set.Validate("short", set.Layouts()[:3])
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, Group(-1), cfgErr.Group)

	swapped := set.Layouts()
	swapped[GroupCamera], swapped[GroupLight] = swapped[GroupLight], swapped[GroupCamera]
	err = set.Validate("swapped", swapped)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, GroupCamera, cfgErr.Group)
	assert.Contains(t, err.Error(), "swapped")

	other, err := NewSet(device)
	require.NoError(t, err)
	foreign := set.Layouts()
	foreign[GroupTexture] = other.Texture()
	err = set.Validate("foreign", foreign)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, GroupTexture, cfgErr.Group)
}
