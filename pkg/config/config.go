// Package config loads engine configuration from TOML files.
//
// All values have working defaults; a config file only needs to override the
// ones being tuned. The physics constants are deliberate, documented defaults
// rather than values with any theoretical claim behind them.
//
// Example file:
//
//	[physics]
//	repulsion = 6400.0
//	damping = 0.85
//
//	[render]
//	frame_rate_ceiling = 20
//
//	[export]
//	dpi = 300
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/BitEU/linkchart/pkg/errors"
)

// Config is the root configuration for the linkchart engine.
type Config struct {
	Physics Physics `toml:"physics"`
	Render  Render  `toml:"render"`
	Export  Export  `toml:"export"`
	Cache   Cache   `toml:"cache"`
	Store   Store   `toml:"store"`
	Serve   Serve   `toml:"serve"`
}

// Physics holds the force-simulation tuning constants.
// These are tunable defaults; there is no canonical force law.
type Physics struct {
	// Repulsion scales the inverse-square pairwise repulsive force.
	Repulsion float64 `toml:"repulsion"`
	// Spring scales the per-edge attractive force (multiplied by edge weight).
	Spring float64 `toml:"spring"`
	// Damping is the per-tick velocity retention factor in (0, 1].
	Damping float64 `toml:"damping"`
	// DT is the integration step.
	DT float64 `toml:"dt"`
	// CutoffRadius bounds the repulsion neighbourhood for spatial partitioning.
	CutoffRadius float64 `toml:"cutoff_radius"`
	// CanvasWidth/CanvasHeight bound node positions.
	CanvasWidth  float64 `toml:"canvas_width"`
	CanvasHeight float64 `toml:"canvas_height"`
	// TickRate is the simulation cadence in ticks per second. The simulation
	// runs at its own cadence, independent of the render frame rate.
	TickRate int `toml:"tick_rate"`
}

// Render holds the render scheduler settings.
type Render struct {
	// FrameRateCeiling caps redraws per second while interaction or
	// simulation is active. Rendering is uncapped when idle.
	FrameRateCeiling int `toml:"frame_rate_ceiling"`
}

// Export holds the document export settings.
type Export struct {
	// DPI is the target resolution for exported documents.
	DPI int `toml:"dpi"`
	// MinDPI is the lower bound enforced on DPI.
	MinDPI int `toml:"min_dpi"`
	// PageWidthIn/PageHeightIn are the page dimensions in inches before
	// landscape orientation is applied.
	PageWidthIn  float64 `toml:"page_width_in"`
	PageHeightIn float64 `toml:"page_height_in"`
}

// Cache configures the layout/artifact cache.
type Cache struct {
	// Dir is the file cache directory. Empty selects a default under the
	// user cache dir.
	Dir string `toml:"dir"`
	// RedisAddr enables the Redis cache backend when non-empty.
	RedisAddr string `toml:"redis_addr"`
}

// Store configures saved-chart persistence.
type Store struct {
	// Dir is the file store directory for saved charts.
	Dir string `toml:"dir"`
	// MongoURI enables the MongoDB store when non-empty.
	MongoURI string `toml:"mongo_uri"`
	// MongoDatabase is the database name used with MongoURI.
	MongoDatabase string `toml:"mongo_database"`
}

// Serve configures the HTTP metrics/status surface.
type Serve struct {
	Addr string `toml:"addr"`
}

// Default returns the engine defaults. These values are safe for datasets of
// a few thousand nodes on commodity hardware.
func Default() Config {
	return Config{
		Physics: Physics{
			Repulsion:    6400.0,
			Spring:       0.015,
			Damping:      0.85,
			DT:           0.6,
			CutoffRadius: 240.0,
			CanvasWidth:  2400.0,
			CanvasHeight: 1600.0,
			TickRate:     60,
		},
		Render: Render{
			FrameRateCeiling: 20,
		},
		Export: Export{
			DPI:          300,
			MinDPI:       150,
			PageWidthIn:  8.5,
			PageHeightIn: 11.0,
		},
		Store: Store{
			MongoDatabase: "linkchart",
		},
		Serve: Serve{
			Addr: ":8477",
		},
	}
}

// Load reads a TOML config file and merges it over the defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges that would make the simulation or export
// misbehave silently.
func (c Config) Validate() error {
	if c.Physics.Damping <= 0 || c.Physics.Damping > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "physics.damping must be in (0, 1], got %g", c.Physics.Damping)
	}
	if c.Physics.DT <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "physics.dt must be positive, got %g", c.Physics.DT)
	}
	if c.Physics.TickRate <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "physics.tick_rate must be positive, got %d", c.Physics.TickRate)
	}
	if c.Render.FrameRateCeiling <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.frame_rate_ceiling must be positive, got %d", c.Render.FrameRateCeiling)
	}
	if c.Export.DPI < c.Export.MinDPI {
		return errors.New(errors.ErrCodeInvalidConfig, "export.dpi %d below minimum %d", c.Export.DPI, c.Export.MinDPI)
	}
	return nil
}
