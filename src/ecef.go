// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Convert the GPS receiver's Earth-centered Earth-fixed
 *		(ECEF) position and velocity into geodetic coordinates
 *		and track over ground.
 *
 *		The sonde reports position in cm and velocity in cm/s
 *		on the WGS84 ellipsoid; callers scale to meters before
 *		reaching these routines.
 *
 *----------------------------------------------------------------*/

import (
	"math"
)

/* WGS84 ellipsoid */
const (
	wgs84A  = 6378137.0         /* semi-major axis, m */
	wgs84F  = 1 / 298.257223563 /* flattening */
	wgs84B  = wgs84A * (1 - wgs84F)
	wgs84E2 = wgs84F * (2 - wgs84F) /* first eccentricity squared */
)

/*------------------------------------------------------------------
 *
 * Name:	ecefToLLA
 *
 * Purpose:	ECEF (m) to geodetic latitude, longitude (degrees) and
 *		altitude above the ellipsoid (m).
 *
 *		Bowring's initial estimate followed by a few fixed
 *		iterations; converges to well under a millimeter for
 *		anything a balloon can reach.
 *
 *----------------------------------------------------------------*/

func ecefToLLA(x, y, z float64) (lat, lon, alt float64) {
	var p = math.Hypot(x, y)
	lon = math.Atan2(y, x)

	if p == 0 {
		/* On the polar axis */
		lat = math.Copysign(math.Pi/2, z)
		alt = math.Abs(z) - wgs84B
		return lat * 180 / math.Pi, lon * 180 / math.Pi, alt
	}

	lat = math.Atan2(z, p*(1-wgs84E2))

	var n float64
	for i := 0; i < 4; i++ {
		var s = math.Sin(lat)
		n = wgs84A / math.Sqrt(1-wgs84E2*s*s)
		alt = p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-wgs84E2*n/(n+alt)))
	}

	return lat * 180 / math.Pi, lon * 180 / math.Pi, alt
}

/*------------------------------------------------------------------
 *
 * Name:	ecefToSpdHdg
 *
 * Purpose:	ECEF velocity (m/s) at a known geodetic position to
 *		ground speed (m/s), true heading (degrees, 0 = north,
 *		clockwise) and climb rate (m/s, up positive).
 *
 *		Rotates the velocity into the local east-north-up
 *		frame.
 *
 *----------------------------------------------------------------*/

func ecefToSpdHdg(latDeg, lonDeg, vx, vy, vz float64) (speed, heading, climb float64) {
	var lat = latDeg * math.Pi / 180
	var lon = lonDeg * math.Pi / 180

	var sinLat = math.Sin(lat)
	var cosLat = math.Cos(lat)
	var sinLon = math.Sin(lon)
	var cosLon = math.Cos(lon)

	var ve = -sinLon*vx + cosLon*vy
	var vn = -sinLat*cosLon*vx - sinLat*sinLon*vy + cosLat*vz
	var vu = cosLat*cosLon*vx + cosLat*sinLon*vy + sinLat*vz

	speed = math.Hypot(ve, vn)
	climb = vu

	heading = math.Atan2(ve, vn) * 180 / math.Pi
	if heading < 0 {
		heading += 360
	}
	return speed, heading, climb
}

/* Inverse of ecefToSpdHdg: local east-north-up velocity back into the
 * ECEF frame.  Used by the signal generator and the round-trip tests. */

func ENUToECEFVel(latDeg, lonDeg, ve, vn, vu float64) (vx, vy, vz float64) {
	var lat = latDeg * math.Pi / 180
	var lon = lonDeg * math.Pi / 180

	var sinLat = math.Sin(lat)
	var cosLat = math.Cos(lat)
	var sinLon = math.Sin(lon)
	var cosLon = math.Cos(lon)

	vx = -sinLon*ve - sinLat*cosLon*vn + cosLat*cosLon*vu
	vy = cosLon*ve - sinLat*sinLon*vn + cosLat*sinLon*vu
	vz = cosLat*vn + sinLat*vu
	return vx, vy, vz
}

/* Forward conversion, used by the signal generator and the round-trip
 * tests. */

func LLAToECEF(latDeg, lonDeg, alt float64) (x, y, z float64) {
	var lat = latDeg * math.Pi / 180
	var lon = lonDeg * math.Pi / 180

	var s = math.Sin(lat)
	var n = wgs84A / math.Sqrt(1-wgs84E2*s*s)

	x = (n + alt) * math.Cos(lat) * math.Cos(lon)
	y = (n + alt) * math.Cos(lat) * math.Sin(lon)
	z = (n*(1-wgs84E2) + alt) * s
	return x, y, z
}
