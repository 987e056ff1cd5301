package core

// PlayConfig defines the sample rate and maximum block size a graph and its
// nodes are prepared for.
type PlayConfig struct {
	SampleRate float64
	BlockSize  int
}

// PlayOption mutates a PlayConfig.
type PlayOption func(*PlayConfig)

// DefaultPlayConfig returns sensible defaults for offline and streaming use.
func DefaultPlayConfig() PlayConfig {
	return PlayConfig{
		SampleRate: 48000,
		BlockSize:  512,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) PlayOption {
	return func(cfg *PlayConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum processing block size.
func WithBlockSize(blockSize int) PlayOption {
	return func(cfg *PlayConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyPlayOptions applies zero or more options to the default config.
func ApplyPlayOptions(opts ...PlayOption) PlayConfig {
	cfg := DefaultPlayConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Valid reports whether both fields are usable for rendering.
func (c PlayConfig) Valid() bool {
	return c.SampleRate > 0 && c.BlockSize > 0
}
