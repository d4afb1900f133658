// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_ecefToLLA_known_points(t *testing.T) {
	// Semi-major axis point: equator, prime meridian, sea level.
	lat, lon, alt := ecefToLLA(6378137.0, 0, 0)
	assert.InDelta(t, 0.0, lat, 1e-9)
	assert.InDelta(t, 0.0, lon, 1e-9)
	assert.InDelta(t, 0.0, alt, 1e-3)

	// Semi-minor axis point: the north pole.
	lat, lon, alt = ecefToLLA(0, 0, 6356752.314245)
	assert.InDelta(t, 90.0, lat, 1e-6)
	assert.InDelta(t, 0.0, alt, 1e-2)
	_ = lon // undefined at the pole
}

func Test_LLAToECEF_roundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var lat = rapid.Float64Range(-89.0, 89.0).Draw(t, "lat")
		var lon = rapid.Float64Range(-180.0, 180.0).Draw(t, "lon")
		var alt = rapid.Float64Range(-100.0, 40000.0).Draw(t, "alt")

		x, y, z := LLAToECEF(lat, lon, alt)
		gotLat, gotLon, gotAlt := ecefToLLA(x, y, z)

		assert.InDelta(t, lat, gotLat, 1e-6)
		assert.InDelta(t, alt, gotAlt, 1e-2)
		// Longitude wraps at the antimeridian.
		var dLon = gotLon - lon
		if dLon > 180 {
			dLon -= 360
		} else if dLon < -180 {
			dLon += 360
		}
		assert.InDelta(t, 0.0, dLon, 1e-6)
	})
}

func Test_ecefToSpdHdg(t *testing.T) {
	// At (0, 0) the ECEF Y axis points east and Z points north.
	speed, heading, climb := ecefToSpdHdg(0, 0, 0, 10, 0)
	assert.InDelta(t, 10.0, speed, 1e-9)
	assert.InDelta(t, 90.0, heading, 1e-9)
	assert.InDelta(t, 0.0, climb, 1e-9)

	speed, heading, climb = ecefToSpdHdg(0, 0, 0, 0, 10)
	assert.InDelta(t, 10.0, speed, 1e-9)
	assert.InDelta(t, 0.0, heading, 1e-9)
	assert.InDelta(t, 0.0, climb, 1e-9)

	// X at (0, 0) is straight up.
	speed, heading, climb = ecefToSpdHdg(0, 0, 5, 0, 0)
	assert.InDelta(t, 0.0, speed, 1e-9)
	assert.InDelta(t, 5.0, climb, 1e-9)
	_ = heading

	// Due west must normalize into [0, 360).
	_, heading, _ = ecefToSpdHdg(0, 0, 0, -10, 0)
	assert.InDelta(t, 270.0, heading, 1e-9)
}

func Test_ENUToECEFVel_roundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var lat = rapid.Float64Range(-89.0, 89.0).Draw(t, "lat")
		var lon = rapid.Float64Range(-180.0, 180.0).Draw(t, "lon")
		var ve = rapid.Float64Range(-100.0, 100.0).Draw(t, "ve")
		var vn = rapid.Float64Range(-100.0, 100.0).Draw(t, "vn")
		var vu = rapid.Float64Range(-100.0, 100.0).Draw(t, "vu")

		vx, vy, vz := ENUToECEFVel(lat, lon, ve, vn, vu)
		speed, _, climb := ecefToSpdHdg(lat, lon, vx, vy, vz)

		assert.InDelta(t, math.Hypot(ve, vn), speed, 1e-6)
		assert.InDelta(t, vu, climb, 1e-6)
	})
}
