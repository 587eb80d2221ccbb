package repeater

import (
	"errors"
	"fmt"
)

// Config is the configuration of the repeater decision engine.
type Config struct {
	Policy `yaml:",inline"`
	// PrimaryRadio is the radio used as the canonical uplink.
	PrimaryRadio RadioID `yaml:"primary_radio"`
	// Radios lists radios known at startup.
	Radios []RadioConfig `yaml:"radios"`
}

// RadioConfig describes a single radio.
type RadioConfig struct {
	ID         RadioID `yaml:"id"`
	FastLane   bool    `yaml:"fast_lane"`
	NoBackhaul bool    `yaml:"no_backhaul"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Policy: Policy{
			Enabled: true,
		},
		Radios: []RadioConfig{},
	}
}

// Validate checks the configuration for consistency.
func (m *Config) Validate() error {
	seen := map[RadioID]struct{}{}
	for idx, radio := range m.Radios {
		if radio.ID == "" {
			return fmt.Errorf("radio #%d: empty id", idx)
		}
		if _, ok := seen[radio.ID]; ok {
			return fmt.Errorf("radio %q: %w", radio.ID, ErrRadioExists)
		}
		seen[radio.ID] = struct{}{}
	}

	if m.PrimaryRadio == "" && len(m.Radios) > 0 {
		return errors.New("primary_radio is required when radios are configured")
	}

	return nil
}

// Apply registers configured radios and policy flags.
//
// Processing is enabled when the configuration says so.
func (m *Context) Apply(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid repeater config: %w", err)
	}

	for _, radio := range cfg.Radios {
		if err := m.AddRadio(radio.ID); err != nil {
			return err
		}
		if err := m.SetFastLane(radio.ID, radio.FastLane); err != nil {
			return err
		}
		if err := m.SetNoBackhaul(radio.ID, radio.NoBackhaul); err != nil {
			return err
		}
	}

	if cfg.PrimaryRadio != "" {
		m.SetPrimaryRadio(cfg.PrimaryRadio)
	}

	m.SetAlwaysPrimary(cfg.AlwaysPrimary)
	m.SetDropSecondaryMulticast(cfg.DropSecondaryMulticast)
	m.SetForceClientMulticast(cfg.ForceClientMulticast)

	if cfg.Enabled {
		m.Init()
	} else {
		m.Deinit()
	}

	return nil
}
