package project

import (
	"time"

	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/sound"
)

// Config holds project orchestration configuration.
type Config struct {
	FPS                int           `mapstructure:"fps"`
	MaxConcurrentCalls int64         `mapstructure:"max_concurrent_calls"`
	PersistTimeout     time.Duration `mapstructure:"persist_timeout"`

	// MusicURL is the default music bed when a submission names none.
	MusicURL string `mapstructure:"music_url"`
	// SFXLibrary maps sound-effect keys to raw asset references.
	SFXLibrary map[string]string `mapstructure:"sfx_library"`

	Policy *generation.Policy `mapstructure:"policy"`
	Brand  *brand.Config      `mapstructure:"brand"`
	Sound  *sound.Config      `mapstructure:"sound"`
}

// DefaultConfig returns default project configuration.
func DefaultConfig() *Config {
	return &Config{
		FPS:                30,
		MaxConcurrentCalls: 4,
		PersistTimeout:     5 * time.Second,
		SFXLibrary:         map[string]string{},
		Policy:             generation.DefaultPolicy(),
		Brand:              brand.DefaultConfig(),
		Sound:              sound.DefaultConfig(),
	}
}

func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	out := *c
	if out.FPS <= 0 {
		out.FPS = def.FPS
	}
	if out.MaxConcurrentCalls <= 0 {
		out.MaxConcurrentCalls = def.MaxConcurrentCalls
	}
	if out.PersistTimeout <= 0 {
		out.PersistTimeout = def.PersistTimeout
	}
	if out.SFXLibrary == nil {
		out.SFXLibrary = def.SFXLibrary
	}
	if out.Policy == nil {
		out.Policy = def.Policy
	}
	if out.Brand == nil {
		out.Brand = def.Brand
	}
	if out.Sound == nil {
		out.Sound = def.Sound
	}
	return &out
}
