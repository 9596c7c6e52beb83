package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenekit/internal/core/observability/log"
)

// Config is the root of the engine configuration file.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Log       log.Config      `yaml:"log"`
	Loader    LoaderConfig    `yaml:"loader"`
	Assets    AssetsConfig    `yaml:"assets"`
	Inspector InspectorConfig `yaml:"inspector"`
}

// EngineConfig drives the frame loop.
type EngineConfig struct {
	// FrameRate is the target number of ticks per second for Run.
	FrameRate int `yaml:"frame_rate"`
	// MaxDelta caps the delta (seconds) handed to components after a long stall.
	MaxDelta float64 `yaml:"max_delta"`
}

// FrameInterval converts FrameRate to the ticker period.
func (c EngineConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// MaxDeltaDuration is MaxDelta as a time.Duration.
func (c EngineConfig) MaxDeltaDuration() time.Duration {
	return time.Duration(c.MaxDelta * float64(time.Second))
}

type LoaderConfig struct {
	// Workers bounds concurrent entity loads and concurrent asset resolutions per load.
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

type AssetsConfig struct {
	Root string `yaml:"root"`
}

type InspectorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// Buffer is the per-client queue length; slow clients drop events past it.
	Buffer int `yaml:"buffer"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			FrameRate: 60,
			MaxDelta:  0.25,
		},
		Log: log.Config{
			Level:    "info",
			Encoding: "json",
		},
		Loader: LoaderConfig{
			Workers: 4,
			Timeout: 10 * time.Second,
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
		Inspector: InspectorConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8089",
			Buffer:  256,
		},
	}
}

// Load decodes YAML from r over Default and validates the result.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the config at path. An empty path yields Default.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Engine.FrameRate <= 0 {
		return fmt.Errorf("%w: engine.frame_rate must be positive, got %d", ErrInvalidConfig, c.Engine.FrameRate)
	}
	if c.Engine.MaxDelta <= 0 {
		return fmt.Errorf("%w: engine.max_delta must be positive, got %v", ErrInvalidConfig, c.Engine.MaxDelta)
	}
	if c.Loader.Workers <= 0 {
		return fmt.Errorf("%w: loader.workers must be positive, got %d", ErrInvalidConfig, c.Loader.Workers)
	}
	if c.Loader.Timeout <= 0 {
		return fmt.Errorf("%w: loader.timeout must be positive", ErrInvalidConfig)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log.encoding %q", ErrInvalidConfig, c.Log.Encoding)
	}
	if c.Inspector.Enabled && c.Inspector.Addr == "" {
		return fmt.Errorf("%w: inspector.addr is required when the inspector is enabled", ErrInvalidConfig)
	}
	return nil
}
