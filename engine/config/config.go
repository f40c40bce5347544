// package config loads the TOML file that configures the window, renderer, camera, lights and logging.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/camera"
	"github.com/Carmen-Shannon/perspective/engine/light"
	"github.com/Carmen-Shannon/perspective/engine/logger"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root of the configuration file.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
	Light    LightConfig    `toml:"light"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig is the [window] table.
type WindowConfig struct {
	Title    string `toml:"title"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	VSync    bool   `toml:"vsync"`
	Headless bool   `toml:"headless"`
}

// RendererConfig is the [renderer] table.
type RendererConfig struct {
	ClearColor       [4]float64 `toml:"clear_color"`
	Workers          int        `toml:"workers"`
	ShaderValidation bool       `toml:"shader_validation"`
	ProfileInterval  string     `toml:"profile_interval"`
}

// CameraConfig is the [camera] table.
type CameraConfig struct {
	Eye          [3]float32 `toml:"eye"`
	Target       [3]float32 `toml:"target"`
	Fovy         float32    `toml:"fovy"`
	Orthographic bool       `toml:"orthographic"`
	OrthoSize    float32    `toml:"ortho_size"`
	Near         float32    `toml:"near"`
	Far          float32    `toml:"far"`
}

// LightConfig is the [light] table.
type LightConfig struct {
	PointPosition    [3]float32 `toml:"point_position"`
	PointColor       [3]float32 `toml:"point_color"`
	AmbientDirection [3]float32 `toml:"ambient_direction"`
	AmbientColor     [3]float32 `toml:"ambient_color"`
	ShadowColor      [3]float32 `toml:"shadow_color"`
}

// LogConfig is the [log] table.
type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cam := camera.NewState()
	lights := light.NewState()
	return &Config{
		Window: WindowConfig{
			Title:  "perspective",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			ClearColor: [4]float64{0.1, 0.2, 0.3, 1},
			Workers:    4,
		},
		Camera: CameraConfig{
			Eye:       cam.Eye,
			Target:    cam.Target,
			Fovy:      cam.Fovy,
			OrthoSize: cam.OrthoSize,
			Near:      cam.Near,
			Far:       cam.Far,
		},
		Light: LightConfig{
			PointPosition:    lights.Point.Position,
			PointColor:       lights.Point.Color,
			AmbientDirection: lights.Ambient.Direction,
			AmbientColor:     lights.Ambient.LightColor,
			ShadowColor:      lights.Ambient.ShadowColor,
		},
		Log: LogConfig{
			Level:  "info",
			Prefix: "perspective",
		},
	}
}

// Parse decodes data over the defaults. Unknown keys are an error.
//
// Parameters:
//   - data: TOML document
//
// Returns:
//   - *Config: the configuration
//   - error: decode or validation error
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys: %s", strict.String())
		}
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.Workers < 1 {
		errs = append(errs, fmt.Errorf("renderer.workers must be at least 1, got %d", c.Renderer.Workers))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes near=%v far=%v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if !c.Camera.Orthographic && (c.Camera.Fovy <= 0 || c.Camera.Fovy >= 180) {
		errs = append(errs, fmt.Errorf("camera.fovy %v must be in (0, 180)", c.Camera.Fovy))
	}
	if c.Camera.Orthographic && c.Camera.OrthoSize <= 0 {
		errs = append(errs, fmt.Errorf("camera.ortho_size %v must be positive", c.Camera.OrthoSize))
	}
	if c.Renderer.ProfileInterval != "" {
		if _, err := time.ParseDuration(c.Renderer.ProfileInterval); err != nil {
			errs = append(errs, fmt.Errorf("renderer.profile_interval: %w", err))
		}
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ApplyCamera copies the [camera] table into s. Aspect and Up are left alone.
func (c *Config) ApplyCamera(s *camera.State) {
	s.Eye = c.Camera.Eye
	s.Target = c.Camera.Target
	s.Fovy = c.Camera.Fovy
	s.OrthoSize = c.Camera.OrthoSize
	s.Near = c.Camera.Near
	s.Far = c.Camera.Far
	s.Projection = camera.ProjectionPerspective
	if c.Camera.Orthographic {
		s.Projection = camera.ProjectionOrthographic
	}
}

// ApplyLight copies the [light] table into s.
func (c *Config) ApplyLight(s *light.State) {
	s.Point.Position = c.Light.PointPosition
	s.Point.Color = c.Light.PointColor
	s.Ambient.Direction = c.Light.AmbientDirection
	s.Ambient.LightColor = c.Light.AmbientColor
	s.Ambient.ShadowColor = c.Light.ShadowColor
}

// ProfileInterval returns the profiler report interval, zero when profiling is off.
func (c *Config) ProfileInterval() time.Duration {
	d, err := time.ParseDuration(c.Renderer.ProfileInterval)
	if err != nil {
		return 0
	}
	return d
}
