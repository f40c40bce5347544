// package shader reflects the resource interface of a WGSL module: the bind group layouts it declares, its entry
// points and its workgroup size. Pipelines use it to check a shader against the layouts it will be bound with, compute
// jobs use it to derive their layout from the kernel source.
package shader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies a WGSL entry point kind.
type Stage int

const (
	// StageCompute is an @compute entry point.
	StageCompute Stage = iota

	// StageVertex is an @vertex entry point.
	StageVertex

	// StageFragment is an @fragment entry point.
	StageFragment
)

// Reflection is the resource interface parsed out of a WGSL source.
type Reflection struct {
	// Groups holds one descriptor per declared @group, entries sorted by binding.
	Groups map[int]wgpu.BindGroupLayoutDescriptor

	// VarNames maps group then binding to the declared variable name.
	VarNames map[int]map[int]string

	// EntryPoints maps each stage found in the source to its first entry point name.
	EntryPoints map[Stage]string

	// WorkgroupSize is the @workgroup_size of the first compute entry point, [1,1,1] when absent.
	WorkgroupSize [3]uint32
}

// Reflect parses source. Declarations the parser does not understand are skipped rather than reported; a
// source that fails to compile is caught by the device or by naga validation, not here.
//
// Parameters:
//   - source: the WGSL source
//   - visibility: the stage flags stamped on every reflected entry
//
// Returns:
//   - *Reflection: the reflected interface
func Reflect(source string, visibility wgpu.ShaderStage) *Reflection {
	groups, names := parseBindGroupLayouts(source, visibility)
	r := &Reflection{
		Groups:        groups,
		VarNames:      names,
		EntryPoints:   make(map[Stage]string),
		WorkgroupSize: parseWorkgroupSize(source),
	}
	for _, st := range []Stage{StageCompute, StageVertex, StageFragment} {
		if name := parseEntryPoint(source, st); name != "" {
			r.EntryPoints[st] = name
		}
	}
	return r
}

// GroupIndices returns the declared group indices in ascending order.
func (r *Reflection) GroupIndices() []int {
	out := make([]int, 0, len(r.Groups))
	for g := range r.Groups {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}

// Entry returns the reflected layout entry at group and binding.
func (r *Reflection) Entry(group, binding int) (wgpu.BindGroupLayoutEntry, bool) {
	desc, ok := r.Groups[group]
	if !ok {
		return wgpu.BindGroupLayoutEntry{}, false
	}
	for _, e := range desc.Entries {
		if int(e.Binding) == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

// Check verifies that every resource the shader declares is provided by layouts with a matching resource kind and a
// large enough buffer binding. Layout entries the shader does not use are allowed.
//
// Parameters:
//   - pipeline: the pipeline label reported in errors
//   - layouts: the entries of each bind group layout, indexed by group
//
// Returns:
//   - error: a *layout.ConfigurationError describing the first mismatch
func (r *Reflection) Check(pipeline string, layouts [][]wgpu.BindGroupLayoutEntry) error {
	for _, g := range r.GroupIndices() {
		if g >= len(layouts) {
			return &layout.ConfigurationError{
				Pipeline: pipeline,
				Group:    layout.Group(g),
				Reason:   fmt.Sprintf("shader references @group(%d) but the pipeline has %d bind group layouts", g, len(layouts)),
			}
		}
		for _, want := range r.Groups[g].Entries {
			got, ok := findEntry(layouts[g], want.Binding)
			if !ok {
				return &layout.ConfigurationError{
					Pipeline: pipeline,
					Group:    layout.Group(g),
					Reason:   fmt.Sprintf("shader declares %s at @binding(%d) which the layout does not provide", r.varName(g, want.Binding), want.Binding),
				}
			}
			if reason := mismatch(want, got); reason != "" {
				return &layout.ConfigurationError{
					Pipeline: pipeline,
					Group:    layout.Group(g),
					Reason:   fmt.Sprintf("%s at @binding(%d): %s", r.varName(g, want.Binding), want.Binding, reason),
				}
			}
		}
	}
	return nil
}

func (r *Reflection) varName(group int, binding uint32) string {
	if name, ok := r.VarNames[group][int(binding)]; ok {
		return name
	}
	return "resource"
}

func findEntry(entries []wgpu.BindGroupLayoutEntry, binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	for _, e := range entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

// mismatch compares a reflected entry with the layout entry bound at the same slot.
func mismatch(want, got wgpu.BindGroupLayoutEntry) string {
	switch {
	case want.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		if got.Buffer.Type != want.Buffer.Type {
			return fmt.Sprintf("shader expects buffer type %v, layout has %v", want.Buffer.Type, got.Buffer.Type)
		}
		if got.Buffer.MinBindingSize != 0 && want.Buffer.MinBindingSize > got.Buffer.MinBindingSize {
			return fmt.Sprintf("shader needs %d bytes, layout binds %d", want.Buffer.MinBindingSize, got.Buffer.MinBindingSize)
		}
	case want.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		if got.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
			return "shader expects a sampler"
		}
	case want.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		if got.Texture.SampleType == wgpu.TextureSampleTypeUndefined {
			return "shader expects a sampled texture"
		}
		if got.Texture.ViewDimension != want.Texture.ViewDimension {
			return fmt.Sprintf("shader expects view dimension %v, layout has %v", want.Texture.ViewDimension, got.Texture.ViewDimension)
		}
	case want.StorageTexture.Format != wgpu.TextureFormatUndefined:
		if got.StorageTexture.Format != want.StorageTexture.Format {
			return fmt.Sprintf("shader expects storage texture format %v, layout has %v", want.StorageTexture.Format, got.StorageTexture.Format)
		}
	}
	return ""
}
