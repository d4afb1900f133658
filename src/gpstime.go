// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"time"
)

/* GPS time began at 1980-01-06 00:00:00 UTC and does not observe leap
 * seconds; UTC has fallen 18 s behind it since 2017 and the sonde's
 * receiver does not transmit the current offset. */

var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

const gpsLeapSeconds = 18

// gpsTimeToUTC converts a GPS week number and millisecond-of-week to
// UTC.
func gpsTimeToUTC(week uint16, ms uint32) time.Time {
	var d = time.Duration(week)*7*24*time.Hour +
		time.Duration(ms)*time.Millisecond -
		gpsLeapSeconds*time.Second
	return gpsEpoch.Add(d)
}

// UTCToGPSTime is the inverse, used by the signal generator.
func UTCToGPSTime(t time.Time) (week uint16, ms uint32) {
	var d = t.Sub(gpsEpoch) + gpsLeapSeconds*time.Second
	var weeks = d / (7 * 24 * time.Hour)
	var rem = d - weeks*7*24*time.Hour
	return uint16(weeks), uint32(rem / time.Millisecond)
}
