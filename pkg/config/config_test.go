package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BitEU/linkchart/pkg/errors"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.FrameRateCeiling != Default().Render.FrameRateCeiling {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkchart.toml")
	body := `
[physics]
damping = 0.9

[render]
frame_rate_ceiling = 30

[export]
dpi = 600
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.Damping != 0.9 {
		t.Errorf("damping = %g, want 0.9", cfg.Physics.Damping)
	}
	if cfg.Render.FrameRateCeiling != 30 {
		t.Errorf("frame ceiling = %d, want 30", cfg.Render.FrameRateCeiling)
	}
	if cfg.Export.DPI != 600 {
		t.Errorf("dpi = %d, want 600", cfg.Export.DPI)
	}
	// Untouched sections keep defaults.
	if cfg.Physics.Repulsion != Default().Physics.Repulsion {
		t.Error("unset physics.repulsion should keep default")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero damping", func(c *Config) { c.Physics.Damping = 0 }},
		{"damping above one", func(c *Config) { c.Physics.Damping = 1.5 }},
		{"negative dt", func(c *Config) { c.Physics.DT = -1 }},
		{"zero tick rate", func(c *Config) { c.Physics.TickRate = 0 }},
		{"zero frame ceiling", func(c *Config) { c.Render.FrameRateCeiling = 0 }},
		{"dpi below minimum", func(c *Config) { c.Export.DPI = 72 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[physics\ndamping="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}
