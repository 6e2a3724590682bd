package player

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config tunes runtime limits and stage defaults. Zero values fall back
// to the defaults below, so a partial TOML file is fine.
type Config struct {
	// StageWidth and StageHeight are the logical stage dimensions in
	// pixels.
	StageWidth  float64 `toml:"stage_width"`
	StageHeight float64 `toml:"stage_height"`

	// FrameRate drives the nominal tick interval reported to hosts.
	FrameRate float64 `toml:"frame_rate"`

	// Quality is the initial Stage.quality setting.
	Quality string `toml:"quality"`

	// SwfVersion overrides the compatibility version gating legacy
	// semantics. Zero keeps the per-movie default.
	SwfVersion int `toml:"swf_version"`

	// MaxRecursion bounds script call depth before the VMs raise a
	// recursion error.
	MaxRecursion int `toml:"max_recursion"`

	// FrameBudgetMs caps the execution time of a single script slice.
	// Zero means unlimited.
	FrameBudgetMs int `toml:"frame_budget_ms"`

	// StoragePath selects the sqlite database for shared objects. Empty
	// keeps shared objects in memory.
	StoragePath string `toml:"storage_path"`

	// ArenaCapacity bounds the script heap in bytes. Zero means
	// unlimited.
	ArenaCapacity uint64 `toml:"arena_capacity"`

	// InternLimit is the maximum length of strings the interner
	// memoizes.
	InternLimit int `toml:"intern_limit"`
}

// DefaultConfig returns the settings used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		StageWidth:   550,
		StageHeight:  400,
		FrameRate:    24,
		Quality:      "high",
		SwfVersion:   8,
		MaxRecursion: 256,
		InternLimit:  64,
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "load config %s", path)
	}
	return cfg.withDefaults(), nil
}

// withDefaults backfills zero fields so callers can hand-build partial
// configs.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StageWidth <= 0 {
		c.StageWidth = d.StageWidth
	}
	if c.StageHeight <= 0 {
		c.StageHeight = d.StageHeight
	}
	if c.FrameRate <= 0 {
		c.FrameRate = d.FrameRate
	}
	if c.Quality == "" {
		c.Quality = d.Quality
	}
	if c.SwfVersion <= 0 {
		c.SwfVersion = d.SwfVersion
	}
	if c.MaxRecursion <= 0 {
		c.MaxRecursion = d.MaxRecursion
	}
	if c.InternLimit <= 0 {
		c.InternLimit = d.InternLimit
	}
	return c
}

func (c Config) frameBudget() time.Duration {
	return time.Duration(c.FrameBudgetMs) * time.Millisecond
}
