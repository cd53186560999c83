package crowd

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Window     WindowConfig     `toml:"window"`
	Population PopulationConfig `toml:"population"`
	Jobs       JobsConfig       `toml:"jobs"`
	Time       TimeConfig       `toml:"time"`
	Logging    LoggingConfig    `toml:"logging"`
	Assets     AssetsConfig     `toml:"assets"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type PopulationConfig struct {
	Instances int     `toml:"instances"`
	BoundSize float32 `toml:"bound_size"` // edge length of the spawn cube, centred on the origin
	Seed      int64   `toml:"seed"`       // 0 seeds from the clock

	// Instances are recycled after a random lifetime in [MinLifetime, MaxLifetime].
	// Zero MaxLifetime keeps the population fixed.
	MinLifetime time.Duration `toml:"min_lifetime"`
	MaxLifetime time.Duration `toml:"max_lifetime"`
}

type JobsConfig struct {
	Workers     int           `toml:"workers"` // 0 = runtime.NumCPU()
	BatchSize   int           `toml:"batch_size"`
	QueueSize   int           `toml:"queue_size"`
	IdleTimeout time.Duration `toml:"idle_timeout"`
}

type TimeConfig struct {
	FixedDelta time.Duration `toml:"fixed_delta"` // 0 = measure wall clock
	MaxDelta   time.Duration `toml:"max_delta"`   // 0 = no clamp
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type AssetsConfig struct {
	Manifest string `toml:"manifest"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Population.Instances < 0 {
		return fmt.Errorf("population.instances must not be negative, got %d", cfg.Population.Instances)
	}
	if cfg.Jobs.BatchSize <= 0 {
		return fmt.Errorf("jobs.batch_size must be positive, got %d", cfg.Jobs.BatchSize)
	}
	if cfg.Jobs.Workers < 0 {
		return fmt.Errorf("jobs.workers must not be negative, got %d", cfg.Jobs.Workers)
	}
	if cfg.Population.MinLifetime < 0 || cfg.Population.MaxLifetime < cfg.Population.MinLifetime && cfg.Population.MaxLifetime != 0 {
		return fmt.Errorf("population lifetimes must satisfy 0 <= min_lifetime <= max_lifetime")
	}
	if cfg.Time.FixedDelta < 0 || cfg.Time.MaxDelta < 0 {
		return fmt.Errorf("time deltas must not be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Crowd",
			VSync:  true,
		},
		Population: PopulationConfig{
			Instances: 10000,
			BoundSize: 64,
		},
		Jobs: JobsConfig{
			BatchSize:   32,
			QueueSize:   256,
			IdleTimeout: time.Second,
		},
		Time: TimeConfig{
			MaxDelta: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Assets: AssetsConfig{
			Manifest: "assets/animations.yaml",
		},
	}
}
