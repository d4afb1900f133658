// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the decoder configuration, normally loaded from a YAML
// file.  Zero values fall back to the defaults below.
type Config struct {
	Demod    DemodConfig    `yaml:"demod"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Server   ServerConfig   `yaml:"server"`
}

// DemodConfig sets the timing recovery loop parameters.
type DemodConfig struct {
	SampleRate   float64 `yaml:"sample_rate"`    // input samples per second
	SymbolRate   float64 `yaml:"symbol_rate"`    // on-air symbols per second
	LoopDamping  float64 `yaml:"loop_damping"`   // Gardner loop zeta
	LoopBW       float64 `yaml:"loop_bandwidth"` // fraction of symbol rate
	MaxDeviation float64 `yaml:"max_deviation"`  // fraction of symbol rate
}

// ReceiverConfig locates the receive site, used for the range and
// bearing readout.  Ignored when unset.
type ReceiverConfig struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
	Alt float64 `yaml:"alt"` // meters above the ellipsoid
	Set bool    `yaml:"-"`
}

// ServerConfig controls the optional live telemetry server.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"` // DNS-SD announcement
	Name      string `yaml:"name"`      // DNS-SD instance name
}

func DefaultConfig() Config {
	return Config{
		Demod: DemodConfig{
			SampleRate:   48000,
			SymbolRate:   RS41_BAUDRATE,
			LoopDamping:  0.707,
			LoopBW:       1.0 / 250,
			MaxDeviation: 1.0 / 1e4,
		},
		Server: ServerConfig{
			Listen: "localhost:8577",
			Name:   "skysonde",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(filename string) (Config, error) {
	var config = DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	var zero ReceiverConfig
	if config.Receiver != zero {
		config.Receiver.Set = true
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	var d = &c.Demod

	if d.SampleRate <= 0 {
		return fmt.Errorf("demod.sample_rate must be positive, got %g", d.SampleRate)
	}
	if d.SymbolRate <= 0 || d.SymbolRate > d.SampleRate/2 {
		return fmt.Errorf("demod.symbol_rate %g outside (0, sample_rate/2]", d.SymbolRate)
	}
	if d.LoopDamping <= 0 {
		return fmt.Errorf("demod.loop_damping must be positive, got %g", d.LoopDamping)
	}
	if d.LoopBW <= 0 || d.LoopBW >= 1 {
		return fmt.Errorf("demod.loop_bandwidth %g outside (0, 1)", d.LoopBW)
	}
	if d.MaxDeviation <= 0 || d.MaxDeviation >= 1 {
		return fmt.Errorf("demod.max_deviation %g outside (0, 1)", d.MaxDeviation)
	}

	var r = &c.Receiver
	if r.Set {
		if r.Lat < -90 || r.Lat > 90 {
			return fmt.Errorf("receiver.lat %g outside [-90, 90]", r.Lat)
		}
		if r.Lon < -180 || r.Lon > 180 {
			return fmt.Errorf("receiver.lon %g outside [-180, 180]", r.Lon)
		}
	}

	if c.Server.Enabled && c.Server.Listen == "" {
		return fmt.Errorf("server.listen must be set when the server is enabled")
	}
	return nil
}
