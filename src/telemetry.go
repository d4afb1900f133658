// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Convert raw PTU ADC readings into calibrated physical
 *		quantities, and hold the cumulative telemetry record.
 *
 *		Each sensor channel is measured as a 24-bit reading
 *		bracketed by two reference readings; the normalized
 *		ratio between the references cancels ADC gain and bias
 *		drift.  Calibration coefficients come from the table in
 *		rs41_calibration.go.
 *
 *		Degenerate inputs (equal references, unset coefficients)
 *		yield NaN, never an error: partial telemetry beats none
 *		over a noisy radio link.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/json"
	"math"
	"time"
)

// SondeData is the cumulative latest-known-state record, updated in
// place as subframes arrive and snapshotted to the consumer once per
// frame.  Fields stay at their previous (or zero) value until the
// owning subframe type is seen.
type SondeData struct {
	Serial     string `json:"serial"`
	Seq        uint16 `json:"seq"`
	Calibrated bool   `json:"calibrated"`

	BatteryVoltage float64 `json:"battery_voltage"`
	BurstKill      int     `json:"burstkill"` // seconds, -1 when disabled

	Temp     float64 `json:"temp"`     // degrees C
	RH       float64 `json:"rh"`       // percent
	Pressure float64 `json:"pressure"` // hPa
	DewPoint float64 `json:"dewpoint"` // degrees C

	Lat float64 `json:"lat"` // degrees
	Lon float64 `json:"lon"` // degrees
	Alt float64 `json:"alt"` // meters

	Speed      float64 `json:"speed"`   // m/s, over ground
	Heading    float64 `json:"heading"` // degrees, 0 = north
	Climb      float64 `json:"climb"`   // m/s
	Satellites int     `json:"satellites"`

	Time time.Time `json:"time"`

	AuxData string `json:"aux_data,omitempty"`
}

/* JSON has no NaN.  Degenerate sensor channels must not cost the
 * consumer the whole snapshot, so non-finite values encode as null. */

func finiteOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (d SondeData) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Serial     string `json:"serial"`
		Seq        uint16 `json:"seq"`
		Calibrated bool   `json:"calibrated"`

		BatteryVoltage *float64 `json:"battery_voltage"`
		BurstKill      int      `json:"burstkill"`

		Temp     *float64 `json:"temp"`
		RH       *float64 `json:"rh"`
		Pressure *float64 `json:"pressure"`
		DewPoint *float64 `json:"dewpoint"`

		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
		Alt *float64 `json:"alt"`

		Speed      *float64 `json:"speed"`
		Heading    *float64 `json:"heading"`
		Climb      *float64 `json:"climb"`
		Satellites int      `json:"satellites"`

		Time time.Time `json:"time"`

		AuxData string `json:"aux_data,omitempty"`
	}{
		Serial:         d.Serial,
		Seq:            d.Seq,
		Calibrated:     d.Calibrated,
		BatteryVoltage: finiteOrNull(d.BatteryVoltage),
		BurstKill:      d.BurstKill,
		Temp:           finiteOrNull(d.Temp),
		RH:             finiteOrNull(d.RH),
		Pressure:       finiteOrNull(d.Pressure),
		DewPoint:       finiteOrNull(d.DewPoint),
		Lat:            finiteOrNull(d.Lat),
		Lon:            finiteOrNull(d.Lon),
		Alt:            finiteOrNull(d.Alt),
		Speed:          finiteOrNull(d.Speed),
		Heading:        finiteOrNull(d.Heading),
		Climb:          finiteOrNull(d.Climb),
		Satellites:     d.Satellites,
		Time:           d.Time,
		AuxData:        d.AuxData,
	})
}

/*------------------------------------------------------------------
 *
 * Name:	ptuTemperature
 *
 * Purpose:	Calibrated air temperature, degrees C.
 *
 *		The normalized ADC ratio maps to a sensor resistance by
 *		two-point interpolation between the calibration
 *		reference resistances; a fixed 2nd degree polynomial
 *		converts resistance to an uncalibrated temperature, and
 *		a 6th degree calibration polynomial supplies the final
 *		correction.
 *
 *----------------------------------------------------------------*/

func ptuTemperature(ptu *PTUSubframe, cal *Calibration) float64 {
	var adcMain = float64(ptu.TempMain)
	var adcRef1 = float64(ptu.TempRef1)
	var adcRef2 = float64(ptu.TempRef2)

	if adcRef2-adcRef1 == 0 {
		return math.NaN()
	}

	var adcRaw = (adcMain - adcRef1) / (adcRef2 - adcRef1)

	/* Resistance, corrected by the calibration gain */
	var rRaw = cal.TRef[0] + (cal.TRef[1]-cal.TRef[0])*adcRaw
	var rt = rRaw * cal.TCalibCoeff[0]

	var tUncal = cal.TTempPoly[0] + cal.TTempPoly[1]*rt + cal.TTempPoly[2]*rt*rt

	var tCal = 0.0
	for i := 6; i > 0; i-- {
		tCal *= tUncal
		tCal += cal.TCalibCoeff[i]
	}
	return tCal + tUncal
}

/* RH sensor temperature.  Same technique as ptuTemperature with its
 * own channel triplet and coefficients.  Uncorrected; the humidity
 * computation applies the correction polynomial itself. */

func ptuRHTemperature(ptu *PTUSubframe, cal *Calibration) float64 {
	var adcMain = float64(ptu.RHTempMain)
	var adcRef1 = float64(ptu.RHTempRef1)
	var adcRef2 = float64(ptu.RHTempRef2)

	if adcRef2-adcRef1 == 0 {
		return math.NaN()
	}
	if cal.TRef[0] == 0 || cal.TRef[1] == 0 {
		return math.NaN()
	}

	var adcRaw = (adcMain - adcRef1) / (adcRef2 - adcRef1)

	var rRaw = cal.TRef[0] + (cal.TRef[1]-cal.TRef[0])*adcRaw
	var rt = rRaw * cal.THCalibCoeff[0]

	return cal.THTempPoly[0] + cal.THTempPoly[1]*rt + cal.THTempPoly[2]*rt*rt
}

/*------------------------------------------------------------------
 *
 * Name:	ptuHumidity
 *
 * Purpose:	Calibrated relative humidity, percent, clamped to
 *		[0, 100].
 *
 *		The sensor capacitance, normalized by two calibration
 *		coefficients, indexes a 7x6 polynomial surface in
 *		(capacitance, RH sensor temperature).  The result is
 *		scaled by the ratio of saturation vapor pressures at
 *		the RH sensor and at ambient, since the heated sensor
 *		sits warmer than the air it samples.
 *
 *----------------------------------------------------------------*/

func ptuHumidity(ptu *PTUSubframe, cal *Calibration) float64 {
	var adcMain = float64(ptu.RHMain)
	var adcRef1 = float64(ptu.RHRef1)
	var adcRef2 = float64(ptu.RHRef2)

	if adcRef2-adcRef1 == 0 {
		return math.NaN()
	}

	var rhTempUncal = ptuRHTemperature(ptu, cal)
	var tTemp = ptuTemperature(ptu, cal)

	/* Calibrated RH sensor temperature */
	var rhTempCal = 0.0
	for i := 6; i > 0; i-- {
		rhTempCal *= rhTempUncal
		rhTempCal += cal.THCalibCoeff[i]
	}
	rhTempCal += rhTempUncal

	/* Raw capacitance, then normalized */
	var adcRaw = (adcMain - adcRef1) / (adcRef2 - adcRef1)
	var cRaw = cal.RHRef[0] + adcRaw*(cal.RHRef[1]-cal.RHRef[0])
	var cCal = (cRaw/cal.RHCapCalib[0] - 1) * cal.RHCapCalib[1]

	/* Evaluate the response surface */
	var rhUncal = 0.0
	var tNorm = (rhTempCal - 20) / 180
	var f1 = 1.0
	for i := 0; i < 7; i++ {
		var f2 = 1.0
		for j := 0; j < 6; j++ {
			rhUncal += f1 * f2 * cal.RHCalibCoeff[i][j]
			f2 *= tNorm
		}
		f1 *= cCal
	}

	/* Account for the temperature difference between the air and
	 * the RH sensor */
	var rhCal = rhUncal * wvSatPressure(rhTempUncal) / wvSatPressure(tTemp)
	return math.Max(0.0, math.Min(100.0, rhCal))
}

/* Direct pressure-sensor decode.  Most units carry no pressure sensor
 * and the raw sensor algorithm is undocumented, so this reports "no
 * sensor" and the decoder falls back to a standard-atmosphere estimate
 * at the GPS altitude. */

func ptuPressure(ptu *PTUSubframe, cal *Calibration) float64 {
	return 0
}

/* Saturation vapor pressure over liquid water, hPa.  Hyland-Wexler. */

func wvSatPressure(tempC float64) float64 {
	var t = tempC + 273.15

	var p = math.Exp(-5800.2206/t +
		1.3914993 +
		-0.048640239*t +
		4.1764768e-5*t*t +
		-1.4452093e-8*t*t*t +
		6.5459673*math.Log(t))

	return p / 100.0
}

/* Dew point from temperature and relative humidity, Magnus formula. */

func dewPoint(tempC, rh float64) float64 {
	if !(rh > 0) {
		return math.NaN()
	}

	const b = 17.62
	const c = 243.12

	var gamma = math.Log(rh/100.0) + b*tempC/(c+tempC)
	return c * gamma / (b - gamma)
}

/* Air pressure, hPa, at a given altitude in the ICAO standard
 * atmosphere.  Layers up to the stratopause; sondes burst well below. */

type atmoLayer struct {
	base  float64 /* geopotential altitude, m */
	press float64 /* hPa at layer base */
	temp  float64 /* K at layer base */
	lapse float64 /* K/m */
}

var atmoLayers = []atmoLayer{
	{0, 1013.25, 288.15, -0.0065},
	{11000, 226.321, 216.65, 0},
	{20000, 54.7489, 216.65, 0.001},
	{32000, 8.68019, 228.65, 0.0028},
	{47000, 1.10906, 270.65, 0},
}

const atmoGMR = 0.034163195 /* g0 * M / R, K/m */

func altitudeToPressure(alt float64) float64 {
	var l = atmoLayers[0]
	for _, layer := range atmoLayers {
		if alt < layer.base {
			break
		}
		l = layer
	}

	if l.lapse == 0 {
		return l.press * math.Exp(-atmoGMR*(alt-l.base)/l.temp)
	}
	return l.press * math.Pow(1+l.lapse*(alt-l.base)/l.temp, -atmoGMR/l.lapse)
}
