package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func newRegistry(t *testing.T) (*gpu.SoftDevice, *Registry) {
	t.Helper()
	d := gpu.NewSoftDevice()
	set, err := layout.NewSet(d)
	require.NoError(t, err)
	return d, NewRegistry(d, set.Texture())
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	return img
}

func TestLoadPNG(t *testing.T) {
	d, r := newRegistry(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	id, err := r.Load(buf.Bytes(), 2)
	require.NoError(t, err)
	b, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint32(2), b.Width)
	assert.Equal(t, uint32(1), b.Height)
	assert.Equal(t, float32(2), b.Aspect)
	assert.NotNil(t, b.BindGroup)
	assert.Equal(t, 1, d.LiveTextures())

	g, ok := r.TextureBindGroup(id)
	assert.True(t, ok)
	assert.Same(t, b.BindGroup, g)
}

func TestLoadBMP(t *testing.T) {
	_, r := newRegistry(t)
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage()))

	id, err := r.Load(buf.Bytes(), 1)
	require.NoError(t, err)
	_, ok := r.Get(id)
	assert.True(t, ok)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, r := newRegistry(t)
	_, err := r.Load([]byte("not an image"), 1)
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoadRGBARejectsShortPixels(t *testing.T) {
	_, r := newRegistry(t)
	_, err := r.LoadRGBA(common.TextureStagingData{Pixels: make([]byte, 4), Width: 2, Height: 2}, 1)
	assert.Error(t, err)
}

func TestUnloadAndRelease(t *testing.T) {
	d, r := newRegistry(t)
	a, err := r.LoadRGBA(common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, 1)
	require.NoError(t, err)
	_, err = r.LoadRGBA(common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	require.NoError(t, r.Unload(a))
	assert.True(t, errors.Is(r.Unload(a), ErrUnknownTexture))
	assert.Equal(t, 1, d.LiveTextures())

	r.Release()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, d.LiveTextures())
}

func TestRetainedTextureCannotBeUnloaded(t *testing.T) {
	d, r := newRegistry(t)
	id, err := r.LoadRGBA(common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, 2)
	require.NoError(t, err)

	b, err := r.Retain(id)
	require.NoError(t, err)
	assert.Equal(t, float32(2), b.Aspect)

	err = r.Unload(id)
	assert.ErrorIs(t, err, ErrTextureInUse)
	_, ok := r.Get(id)
	assert.True(t, ok)
	assert.Equal(t, 1, d.LiveTextures())

	_, err = r.Retain(ID{})
	assert.ErrorIs(t, err, ErrUnknownTexture)

	r.Release()
	assert.Equal(t, 0, d.LiveTextures())
}

func TestToRGBAConvertsPixels(t *testing.T) {
	s := ToRGBA(testImage())
	assert.True(t, s.Valid())
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, s.Pixels)
}
