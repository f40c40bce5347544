package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
title = "sprites"

[camera]
eye = [0.0, 0.0, 5.0]
orthographic = true
ortho_size = 3.0

[light]
point_color = [1.0, 1.0, 1.0]

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, "sprites", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, "debug", cfg.Log.Level)

	cam := camera.NewState()
	cfg.ApplyCamera(cam)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, cam.Eye)
	assert.Equal(t, camera.ProjectionOrthographic, cam.Projection)
	assert.Equal(t, float32(3), cam.OrthoSize)

	lights := light.NewState()
	cfg.ApplyLight(lights)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, lights.Point.Color)
	assert.Equal(t, mgl32.Vec3{2, 1, 2}, lights.Point.Position)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[window]\ncolour = 3\n"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte("[camera]\nnear = 10.0\nfar = 1.0\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[log]\nlevel = \"loud\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[renderer]\nprofile_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestProfileInterval(t *testing.T) {
	cfg, err := Parse([]byte("[renderer]\nprofile_interval = \"2s\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.ProfileInterval())
	assert.Zero(t, Default().ProfileInterval())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perspective.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window]\ntitle = \"a\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c }, nil)
	}()

	// Keep rewriting until the watcher, which starts asynchronously, picks a write up.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case c := <-changes:
			// a write can be observed while the file is still truncated
			if c.Window.Title != "b" {
				continue
			}
			cancel()
			require.NoError(t, <-done)
			return
		case <-ticker.C:
			require.NoError(t, os.WriteFile(path, []byte("[window]\ntitle = \"b\"\n"), 0o644))
		case <-deadline:
			t.Fatal("configuration change was not observed")
		}
	}
}
