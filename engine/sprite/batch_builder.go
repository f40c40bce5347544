package sprite

import "time"

// PoolSettings describes the sprite sheet and arena of one batch.
type PoolSettings struct {
	// Label names the GPU objects of the batch.
	Label string
	// TileAspect is the width over height of one tile.
	TileAspect float32
	// TileSize is the UV extent of one tile in the atlas.
	TileSize [2]float32
	// AnimationFrames holds the UV offset of every frame of the animation, in playback order.
	AnimationFrames [][2]float32
	// Capacity is the number of instance slots.
	Capacity int
	// FrameDelay is the time each animation frame stays on screen.
	FrameDelay time.Duration
}

// DefaultPoolSettings returns a 2x2 atlas played at 70ms per frame with room for 100000 instances.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		Label:           "sprite",
		TileAspect:      1,
		TileSize:        [2]float32{0.5, 0.5},
		AnimationFrames: [][2]float32{{0, 0}, {0.5, 0}, {0, 0.5}, {0.5, 0.5}},
		Capacity:        100_000,
		FrameDelay:      70 * time.Millisecond,
	}
}

// PoolSettingsOption is a functional option applied on top of DefaultPoolSettings.
type PoolSettingsOption func(*PoolSettings)

// NewPoolSettings builds PoolSettings from the defaults and the given options.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - PoolSettings: the settings
func NewPoolSettings(options ...PoolSettingsOption) PoolSettings {
	s := DefaultPoolSettings()
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// WithLabel sets the label of the batch.
func WithLabel(label string) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.Label = label
	}
}

// WithTileAspect sets the width over height of one tile.
func WithTileAspect(aspect float32) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.TileAspect = aspect
	}
}

// WithTileSize sets the UV extent of one tile.
func WithTileSize(u, v float32) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.TileSize = [2]float32{u, v}
	}
}

// WithAnimationFrames sets the frame table.
//
// Parameters:
//   - frames: UV offsets of each frame, in playback order
//
// Returns:
//   - PoolSettingsOption: a function that sets the frame table
func WithAnimationFrames(frames ...[2]float32) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.AnimationFrames = frames
	}
}

// WithCapacity sets the number of instance slots.
func WithCapacity(capacity int) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.Capacity = capacity
	}
}

// WithFrameDelay sets how long each animation frame is shown.
func WithFrameDelay(d time.Duration) PoolSettingsOption {
	return func(s *PoolSettings) {
		s.FrameDelay = d
	}
}
