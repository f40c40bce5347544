package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/config"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/Carmen-Shannon/perspective/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type fakeHost struct {
	rec        *recorder
	pumps      int
	closeAfter int
	onResize   func(width, height int)
	onPump     func(n int)
}

func (h *fakeHost) ProcessMessages() bool {
	h.pumps++
	h.rec.add("pump")
	if h.onPump != nil {
		h.onPump(h.pumps)
	}
	return h.closeAfter == 0 || h.pumps < h.closeAfter
}

func (h *fakeHost) SetResizeCallback(callback func(width, height int)) {
	h.onResize = callback
}

type fakeRenderer struct {
	rec       *recorder
	renders   int
	failAt    int
	failWith  error
	clear     wgpu.Color
	eyes      []mgl32.Vec3
	aspects   []float32
	presented uint64
}

func (r *fakeRenderer) UpdateAnimationAndCamera(dt time.Duration, cam *camera.State, lights *light.State) {
	r.rec.add("animate")
	r.eyes = append(r.eyes, cam.Eye)
	r.aspects = append(r.aspects, cam.Aspect)
}

func (r *fakeRenderer) RenderFrame() error {
	r.renders++
	r.rec.add("render")
	if r.failAt > 0 && r.renders == r.failAt {
		return r.failWith
	}
	r.presented++
	return nil
}

func (r *fakeRenderer) Resize(width, height uint32) error {
	r.rec.add("resize %dx%d", width, height)
	return nil
}

func (r *fakeRenderer) SetClearColor(c wgpu.Color) {
	r.clear = c
}

func (r *fakeRenderer) Stats() renderer.Stats {
	return renderer.Stats{Presented: r.presented}
}

func newFakes() (*recorder, *fakeHost, *fakeRenderer) {
	rec := &recorder{}
	return rec, &fakeHost{rec: rec}, &fakeRenderer{rec: rec}
}

func recordingHandler(rec *recorder) Handler {
	return HandlerFunc(func(dt time.Duration, cam *camera.State, lights *light.State) error {
		rec.add("update")
		return nil
	})
}

func TestRunFrameOrder(t *testing.T) {
	rec, host, r := newFakes()
	e := NewEngine(host, r, recordingHandler(rec), WithMaxFrames(2), WithLogger(logger.Discard()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Frames())
	assert.Equal(t, []string{
		"update", "animate", "render", "pump",
		"update", "animate", "render", "pump",
	}, rec.events)
}

func TestResizeAppliedBeforeNextRender(t *testing.T) {
	rec, host, r := newFakes()
	host.onPump = func(n int) {
		if n == 1 {
			host.onResize(800, 600)
			host.onResize(1024, 512)
		}
	}
	e := NewEngine(host, r, nil, WithMaxFrames(2), WithLogger(logger.Discard()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []string{
		"animate", "render", "pump",
		"resize 1024x512", "animate", "render", "pump",
	}, rec.events)
	assert.InDelta(t, 2.0, r.aspects[1], 1e-6)
}

func TestZeroSizeResizeIsDropped(t *testing.T) {
	rec, host, r := newFakes()
	host.onPump = func(n int) { host.onResize(0, 600) }
	e := NewEngine(host, r, nil, WithMaxFrames(2), WithLogger(logger.Discard()))

	require.NoError(t, e.Run(context.Background()))
	assert.NotContains(t, rec.events, "resize 0x600")
}

func TestFatalRenderErrorStopsLoop(t *testing.T) {
	rec, host, r := newFakes()
	boom := errors.New("device lost")
	r.failAt, r.failWith = 2, boom
	e := NewEngine(host, r, nil, WithLogger(logger.Discard()))

	err := e.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), e.Frames())
	assert.Equal(t, []string{"animate", "render", "pump", "animate", "render"}, rec.events)
}

func TestHandlerErrorStopsLoop(t *testing.T) {
	_, host, r := newFakes()
	stop := errors.New("stop")
	e := NewEngine(host, r, HandlerFunc(func(time.Duration, *camera.State, *light.State) error {
		return stop
	}), WithLogger(logger.Discard()))

	assert.ErrorIs(t, e.Run(context.Background()), stop)
	assert.Equal(t, 0, r.renders)
}

func TestHostCloseStopsLoop(t *testing.T) {
	_, host, r := newFakes()
	host.closeAfter = 3
	e := NewEngine(host, r, nil, WithLogger(logger.Discard()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Frames())
}

func TestQuitFromHandler(t *testing.T) {
	_, host, r := newFakes()
	var e Engine
	frames := 0
	e = NewEngine(host, r, HandlerFunc(func(time.Duration, *camera.State, *light.State) error {
		frames++
		if frames == 2 {
			e.Quit()
			e.Quit()
		}
		return nil
	}), WithLogger(logger.Discard()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Frames())
}

func TestCancelledContext(t *testing.T) {
	_, host, r := newFakes()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(host, r, nil, WithLogger(logger.Discard()))

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 0, r.renders)
}

func TestHandlerMutatesCameraSeenByRenderer(t *testing.T) {
	_, host, r := newFakes()
	e := NewEngine(host, r, HandlerFunc(func(dt time.Duration, cam *camera.State, lights *light.State) error {
		cam.Eye = cam.Eye.Add(mgl32.Vec3{1, 0, 0})
		return nil
	}), WithMaxFrames(2), WithCamera(camera.NewState()), WithLogger(logger.Discard()))
	start := e.Camera().Eye

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, r.eyes, 2)
	assert.Equal(t, start.Add(mgl32.Vec3{1, 0, 0}), r.eyes[0])
	assert.Equal(t, start.Add(mgl32.Vec3{2, 0, 0}), r.eyes[1])
}

func TestConfigAppliedAtConstructionAndReload(t *testing.T) {
	_, host, r := newFakes()
	cfg := config.Default()
	cfg.Renderer.ClearColor = [4]float64{1, 0, 0, 1}
	cfg.Camera.Eye = [3]float32{0, 0, 9}

	e := NewEngine(host, r, nil, WithConfig(cfg), WithMaxFrames(1), WithLogger(logger.Discard()))
	assert.Equal(t, wgpu.Color{R: 1, A: 1}, r.clear)
	assert.Equal(t, mgl32.Vec3{0, 0, 9}, e.Camera().Eye)

	reloaded := config.Default()
	reloaded.Renderer.ClearColor = [4]float64{0, 1, 0, 1}
	reloaded.Light.PointColor = [3]float32{0, 0, 1}
	impl := e.(*engine)
	impl.mu.Lock()
	impl.pendingConfig = reloaded
	impl.mu.Unlock()

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, wgpu.Color{G: 1, A: 1}, r.clear)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, e.Lights().Point.Color)
}

func TestProfilerReadsRendererStats(t *testing.T) {
	_, host, r := newFakes()
	e := NewEngine(host, r, nil, WithProfiling(time.Hour), WithMaxFrames(3), WithLogger(logger.Discard()))
	require.NotNil(t, e.(*engine).profiler)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), r.presented)
}
