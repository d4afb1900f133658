// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultConfig_valid(t *testing.T) {
	var cfg = DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, float64(RS41_BAUDRATE), cfg.Demod.SymbolRate)
	assert.False(t, cfg.Receiver.Set)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), "skysonde.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_LoadConfig(t *testing.T) {
	var path = writeConfig(t, `
demod:
  sample_rate: 96000
receiver:
  lat: 52.2297
  lon: 21.0122
  alt: 110
server:
  enabled: true
  listen: "0.0.0.0:9000"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 96000.0, cfg.Demod.SampleRate)
	assert.Equal(t, float64(RS41_BAUDRATE), cfg.Demod.SymbolRate, "unset fields keep defaults")
	assert.True(t, cfg.Receiver.Set)
	assert.Equal(t, 52.2297, cfg.Receiver.Lat)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

func Test_LoadConfig_missing_file(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func Test_LoadConfig_rejects_bad_values(t *testing.T) {
	var cases = []struct {
		name string
		yaml string
	}{
		{"negative sample rate", "demod: {sample_rate: -1}"},
		{"symbol rate above nyquist", "demod: {symbol_rate: 40000}"},
		{"zero damping", "demod: {loop_damping: 0}"},
		{"latitude out of range", "receiver: {lat: 91}"},
		{"server without listen", "server: {enabled: true, listen: \"\"}"},
		{"malformed yaml", ": ["},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}
