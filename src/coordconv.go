// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

// Utilities for working with https://github.com/tzneal/coordconv and
// the s2 geometry library: grid references for the sonde position and
// range/bearing from the receive site.

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

const earthRadiusM = 6371008.8

func HemisphereToRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	case coordconv.HemisphereInvalid:
		return '!'
	default:
		return '?'
	}
}

// UTMString renders a position as a UTM grid reference, or "" when the
// conversion is not defined (e.g. polar latitudes).
func UTMString(lat, lon float64) string {
	var latlng = s2.LatLngFromDegrees(lat, lon)

	var utm, err = coordconv.DefaultUTMConverter.ConvertFromGeodetic(latlng, 0)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d%c %.0f %.0f", utm.Zone, HemisphereToRune(utm.Hemisphere), utm.Easting, utm.Northing)
}

// GroundRange returns the great-circle distance in meters and the
// initial bearing in degrees from the receiver to the sonde.
func GroundRange(rxLat, rxLon, lat, lon float64) (distance, bearing float64) {
	var from = s2.LatLngFromDegrees(rxLat, rxLon)
	var to = s2.LatLngFromDegrees(lat, lon)

	distance = float64(from.Distance(to)) * earthRadiusM

	var dLng = float64(to.Lng - from.Lng)
	var y = math.Sin(dLng) * math.Cos(float64(to.Lat))
	var x = math.Cos(float64(from.Lat))*math.Sin(float64(to.Lat)) -
		math.Sin(float64(from.Lat))*math.Cos(float64(to.Lat))*math.Cos(dLng)
	bearing = math.Atan2(y, x) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}
	return distance, bearing
}

// SlantRange is the line-of-sight distance in meters, accounting for
// the altitude difference.
func SlantRange(rxLat, rxLon, rxAlt, lat, lon, alt float64) float64 {
	var ground, _ = GroundRange(rxLat, rxLon, lat, lon)
	return math.Hypot(ground, alt-rxAlt)
}

// ElevationAngle is the antenna elevation in degrees toward the sonde,
// ignoring refraction.
func ElevationAngle(rxLat, rxLon, rxAlt, lat, lon, alt float64) float64 {
	var ground, _ = GroundRange(rxLat, rxLon, lat, lon)
	if ground == 0 {
		return 90
	}
	/* Drop of the horizon over the ground range */
	var drop = ground * ground / (2 * earthRadiusM)
	return math.Atan2(alt-rxAlt-drop, ground) * 180 / math.Pi
}
