// package compute runs a single-storage-buffer WGSL kernel over a typed slice and reads the result back through a
// mapped staging buffer. A Job owns its GPU resources and allows one readback in flight at a time; each dispatch
// hands out a Readback that walks the map protocol to completion.
package compute

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/Carmen-Shannon/perspective/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/Carmen-Shannon/perspective/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/perspective/engine/renderer/shader"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the position of a Job in the dispatch and readback cycle.
type State int

const (
	// StateIdle accepts Dispatch and Write.
	StateIdle State = iota

	// StateDispatched has submitted work whose result has not been requested yet.
	StateDispatched

	// StateMapRequested is waiting for the staging buffer map to complete.
	StateMapRequested

	// StateMapped has a readable staging buffer.
	StateMapped

	// StateConsumed is held while the mapped bytes are decoded and the buffer unmapped.
	StateConsumed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateMapRequested:
		return "map_requested"
	case StateMapped:
		return "mapped"
	case StateConsumed:
		return "consumed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Settings describe a job. Source must declare its data as
// @group(0) @binding(0) var<storage, read_write> and nothing else.
type Settings[T any] struct {
	Label  string
	Source string
	// EntryPoint defaults to the first @compute function in Source.
	EntryPoint string
	Data       []T
}

// Job is a compiled kernel bound to one storage buffer of len(Data) elements.
type Job[T any] struct {
	mu *sync.Mutex

	device gpu.Device
	label  string
	logger *log.Logger

	count    int
	elemSize int
	size     uint64

	layout   gpu.BindGroupLayout
	pipeline pipeline.Pipeline
	bindings bind_group_provider.BindGroupProvider
	storage  gpu.Buffer
	staging  gpu.Buffer

	state      State
	generation uint64
	inFlight   *Readback[T]
	released   bool
}

// NewJob compiles settings.Source and uploads settings.Data.
//
// Parameters:
//   - device: the device the job runs on
//   - settings: kernel source and initial data
//   - options: builder options
//
// Returns:
//   - *Job[T]: the job, idle
//   - error: a *layout.ConfigurationError when the shader's interface does not fit, a *pipeline.ShaderError when
//     validation rejects the source, or the device error
func NewJob[T any](device gpu.Device, settings Settings[T], options ...JobBuilderOption) (*Job[T], error) {
	cfg := &jobConfig{logger: logger.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	label := settings.Label
	if label == "" {
		label = "compute"
	}
	if len(settings.Data) == 0 {
		return nil, fmt.Errorf("compute job %q: no data", label)
	}
	contents, err := encode(settings.Data)
	if err != nil {
		return nil, fmt.Errorf("compute job %q: %w", label, err)
	}

	reflection := shader.Reflect(settings.Source, wgpu.ShaderStageCompute)
	desc, err := storageLayout(label, reflection)
	if err != nil {
		return nil, err
	}
	entry := settings.EntryPoint
	if entry == "" {
		entry = reflection.EntryPoints[shader.StageCompute]
	}
	if entry == "" {
		return nil, &layout.ConfigurationError{Pipeline: label, Group: -1, Reason: "shader has no @compute entry point"}
	}

	var zero T
	j := &Job[T]{
		mu:       &sync.Mutex{},
		device:   device,
		label:    label,
		logger:   cfg.logger,
		count:    len(settings.Data),
		elemSize: int(unsafe.Sizeof(zero)),
		size:     uint64(len(contents)),
	}

	j.layout, err = device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, fmt.Errorf("compute job %q: %w", label, err)
	}
	j.pipeline, err = pipeline.NewComputePipeline(device,
		pipeline.WithPipelineKey(label),
		pipeline.WithShaderSource(settings.Source),
		pipeline.WithComputeEntryPoint(entry),
		pipeline.WithBindGroupLayouts(j.layout),
		pipeline.WithShaderValidation(cfg.validateShader),
	)
	if err != nil {
		j.Release()
		return nil, err
	}

	j.storage, err = device.CreateBufferInit(label+" Storage", wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc, contents)
	if err != nil {
		j.Release()
		return nil, fmt.Errorf("compute job %q: %w", label, err)
	}
	j.bindings = bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithBuffer(0, j.storage))
	if err := bind_group_provider.Init(device, j.bindings, j.layout, nil); err != nil {
		j.Release()
		return nil, fmt.Errorf("compute job %q: %w", label, err)
	}
	j.staging, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Staging",
		Size:  j.size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		j.Release()
		return nil, fmt.Errorf("compute job %q: %w", label, err)
	}

	j.logger.Debug("compute job ready", "label", label, "entry", entry, "elements", j.count, "bytes", j.size)
	return j, nil
}

// storageLayout checks that the kernel binds exactly one read_write storage buffer at group 0 binding 0.
func storageLayout(label string, r *shader.Reflection) (*wgpu.BindGroupLayoutDescriptor, error) {
	groups := r.GroupIndices()
	if len(groups) != 1 || groups[0] != 0 {
		return nil, &layout.ConfigurationError{Pipeline: label, Group: -1, Reason: fmt.Sprintf("kernel must bind only @group(0), found groups %v", groups)}
	}
	desc := r.Groups[0]
	if len(desc.Entries) != 1 || desc.Entries[0].Binding != 0 {
		return nil, &layout.ConfigurationError{Pipeline: label, Group: 0, Reason: "kernel must bind a single buffer at @binding(0)"}
	}
	if desc.Entries[0].Buffer.Type != wgpu.BufferBindingTypeStorage {
		return nil, &layout.ConfigurationError{Pipeline: label, Group: 0, Reason: fmt.Sprintf("%s must be var<storage, read_write>", r.VarNames[0][0])}
	}
	desc.Label = label + " Layout"
	return &desc, nil
}

// normalizeWorkgroups turns an all-zero request into one workgroup per element and raises any other zero to one.
func normalizeWorkgroups(wg [3]uint32, count int) [3]uint32 {
	if wg == [3]uint32{} {
		return [3]uint32{uint32(count), 1, 1}
	}
	for i := range wg {
		wg[i] = max(wg[i], 1)
	}
	return wg
}

// Dispatch submits the kernel followed by a copy of the storage buffer into the staging buffer.
//
// Parameters:
//   - workgroups: the dispatch size, all zero for one workgroup per element
//
// Returns:
//   - *Readback[T]: the handle for this dispatch's result
//   - error: ErrReadbackInFlight while an earlier readback is unconsumed, ErrInvalidState after Release
func (j *Job[T]) Dispatch(workgroups [3]uint32) (*Readback[T], error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released {
		return nil, &Error{Kind: ErrorKindInvalidState, Op: "dispatch", Err: errors.New("job released")}
	}
	if j.inFlight != nil {
		return nil, &Error{Kind: ErrorKindReadbackInFlight, Op: "dispatch"}
	}

	wg := normalizeWorkgroups(workgroups, j.count)
	encoder, err := j.device.CreateCommandEncoder(j.label + " Encoder")
	if err != nil {
		return nil, fmt.Errorf("compute job %q: %w", j.label, err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(j.label + " Pass")
	pass.SetPipeline(j.pipeline.Compute())
	pass.SetBindGroup(0, j.bindings.BindGroup())
	pass.DispatchWorkgroups(wg[0], wg[1], wg[2])
	pass.End()
	encoder.CopyBufferToBuffer(j.storage, 0, j.staging, 0, j.size)

	cmd, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("compute job %q: %w", j.label, err)
	}
	j.device.Submit(cmd)
	cmd.Release()

	j.generation++
	j.state = StateDispatched
	rb := &Readback[T]{
		job:        j,
		generation: j.generation,
		done:       make(chan error, 1),
		finished:   make(chan struct{}),
	}
	j.inFlight = rb
	j.logger.Debug("compute dispatched", "label", j.label, "workgroups", wg, "generation", j.generation)
	return rb, nil
}

// Write replaces the storage buffer contents. Only valid while idle.
//
// Parameters:
//   - data: exactly as many elements as the job was created with
//
// Returns:
//   - error: ErrInvalidState outside StateIdle, or a length mismatch
func (j *Job[T]) Write(data []T) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released || j.state != StateIdle {
		return &Error{Kind: ErrorKindInvalidState, Op: "write", Err: fmt.Errorf("job is %s", j.state)}
	}
	if len(data) != j.count {
		return fmt.Errorf("compute job %q: write of %d elements, job holds %d", j.label, len(data), j.count)
	}
	contents, err := encode(data)
	if err != nil {
		return fmt.Errorf("compute job %q: %w", j.label, err)
	}
	return j.device.WriteBuffer(j.storage, 0, contents)
}

// State returns the job's current state.
func (j *Job[T]) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// InFlight reports whether a readback is outstanding.
func (j *Job[T]) InFlight() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inFlight != nil
}

// Len returns the number of elements the job operates on.
func (j *Job[T]) Len() int {
	return j.count
}

// Release frees every GPU object the job owns. An unfinished readback is completed with ErrInvalidState.
func (j *Job[T]) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released {
		return
	}
	j.released = true
	if rb := j.inFlight; rb != nil {
		if j.state == StateMapped {
			j.staging.Unmap()
		}
		rb.finish(&Error{Kind: ErrorKindInvalidState, Op: "release", Err: errors.New("job released")})
		j.inFlight = nil
	}
	j.state = StateIdle

	if j.bindings != nil {
		// releases the storage buffer bound at 0
		j.bindings.Release()
	} else if j.storage != nil {
		j.storage.Release()
	}
	if j.staging != nil {
		j.staging.Release()
	}
	if j.pipeline != nil {
		j.pipeline.Release()
	}
	if j.layout != nil {
		j.layout.Release()
	}
}
