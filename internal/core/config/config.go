package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/observability/log"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
)

// MaxWorldDepth bounds world.max_depth; deeper trees are rarely useful for a
// single screen and cost 4^depth nodes.
const MaxWorldDepth = 8

var ErrInvalidConfig = errors.New("config: invalid")

// Config is fixed at construction; nothing reloads it.
type Config struct {
	World   WorldConfig   `json:"world" yaml:"world"`
	Physics PhysicsConfig `json:"physics" yaml:"physics"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Sandbox SandboxConfig `json:"sandbox" yaml:"sandbox"`
}

type WorldConfig struct {
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	MaxDepth int     `json:"max_depth" yaml:"max_depth"`
}

func (w WorldConfig) Size() geom.Vec2 { return geom.V2(w.Width, w.Height) }

type PhysicsConfig struct {
	TickMS           int     `json:"tick_ms" yaml:"tick_ms"`
	Gravity          float64 `json:"gravity" yaml:"gravity"`
	TerminalVelocity float64 `json:"terminal_velocity" yaml:"terminal_velocity"`
	SummationPolicy  string  `json:"summation_policy,omitempty" yaml:"summation_policy,omitempty"`
}

func (p PhysicsConfig) Tick() time.Duration {
	return time.Duration(p.TickMS) * time.Millisecond
}

func (p PhysicsConfig) Policy() (physics.SummationPolicy, error) {
	return physics.ParseSummationPolicy(p.SummationPolicy)
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type FeedConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type SandboxConfig struct {
	Entities int   `json:"entities" yaml:"entities"`
	Seed     int64 `json:"seed" yaml:"seed"`
	Frames   int   `json:"frames" yaml:"frames"`
	FrameMS  int   `json:"frame_ms" yaml:"frame_ms"`
}

func (s SandboxConfig) Frame() time.Duration {
	return time.Duration(s.FrameMS) * time.Millisecond
}

func Default() *Config {
	return &Config{
		World: WorldConfig{Width: 1024, Height: 768, MaxDepth: 4},
		Physics: PhysicsConfig{
			TickMS:  int(physics.DefaultTickDuration / time.Millisecond),
			Gravity: physics.DefaultGravity,
		},
		Log:     LogConfig{Level: "info", Encoding: "json"},
		Feed:    FeedConfig{Addr: "127.0.0.1:8089"},
		Sandbox: SandboxConfig{Entities: 200, Seed: 1, Frames: 600, FrameMS: 16},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size %gx%g must be positive", c.World.Width, c.World.Height))
	}
	if c.World.MaxDepth < 0 || c.World.MaxDepth > MaxWorldDepth {
		errs = append(errs, fmt.Errorf("world.max_depth %d not in [0,%d]", c.World.MaxDepth, MaxWorldDepth))
	}
	if c.Physics.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("physics.tick_ms %d must be positive", c.Physics.TickMS))
	}
	if c.Physics.TerminalVelocity < 0 {
		errs = append(errs, fmt.Errorf("physics.terminal_velocity %g must not be negative", c.Physics.TerminalVelocity))
	}
	if _, err := c.Physics.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding %q must be json or console", c.Log.Encoding))
	}
	if c.Feed.Enabled && c.Feed.Addr == "" {
		errs = append(errs, errors.New("feed.addr is required when the feed is enabled"))
	}
	if c.Sandbox.Entities < 0 || c.Sandbox.Frames < 0 || c.Sandbox.FrameMS < 0 {
		errs = append(errs, errors.New("sandbox values must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadJSON decodes over Default, so omitted keys keep their defaults.
func LoadJSON(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode json config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAML decodes over Default, so omitted keys keep their defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
}
