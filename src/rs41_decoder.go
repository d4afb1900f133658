// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Top level frame decoder.  Takes raw 518 byte frames
 *		from the framer, descrambles and error-corrects them,
 *		walks the subframes inside and keeps the cumulative
 *		SondeData record up to date.
 *
 *		The handler is invoked once per input frame, even when
 *		error correction failed: individual subframes carry
 *		their own CRC, so a frame the Reed-Solomon stage could
 *		not fully repair often still yields usable telemetry.
 *
 *----------------------------------------------------------------*/

import (
	"strings"
)

// FrameResult describes what the decoder got out of one frame.
type FrameResult struct {
	FECOk        bool // both Reed-Solomon blocks decoded
	Corrected    int  // byte errors repaired, valid when FECOk
	SubframesOk  int
	SubframesBad int
}

type RS41Decoder struct {
	rs      *rs_t
	calib   *CalibrationAssembler
	data    SondeData
	handler func(*SondeData)

	hasPressureSensor bool
}

// NewRS41Decoder returns a decoder that calls handler with the updated
// telemetry record after each frame.  The handler must not retain the
// pointer past the call; it aliases the decoder's own record.
func NewRS41Decoder(handler func(*SondeData)) *RS41Decoder {
	var d = &RS41Decoder{
		rs: init_rs_char(8, RS41_REEDSOLOMON_POLY, RS41_REEDSOLOMON_FIRST_ROOT,
			RS41_REEDSOLOMON_ROOT_SKIP, RS41_REEDSOLOMON_NROOTS),
		calib:   NewCalibrationAssembler(),
		handler: handler,
	}
	return d
}

// Reset discards all per-sonde state.  Call when the input source
// changes, so a new sonde cannot inherit the previous one's
// calibration fragments.
func (d *RS41Decoder) Reset() {
	d.calib.Reset()
	d.data = SondeData{}
	d.hasPressureSensor = false
}

// Process decodes one descrambler-aligned frame in place.  frame must
// be RS41_FRAME_LEN bytes.
func (d *RS41Decoder) Process(frame []byte) FrameResult {
	var res FrameResult

	rs41Descramble(frame)
	res.Corrected, res.FECOk = rs41FECCorrect(d.rs, frame)

	var bytesLeft = rs41FrameDataLen(frame)
	var data = frame[RS41_DATA_POS:]

	var offset = 0
	for offset+2 <= bytesLeft {
		var typ = data[offset]
		var length = int(data[offset+1])
		var start = offset + 2
		offset += length + 4

		/* End of subframe must still be in bounds */
		if offset > bytesLeft {
			break
		}

		if !crcCheck(data[start:start+length], data[start+length:start+length+2]) {
			res.SubframesBad++
			continue
		}

		var sf = decodeSubframe(typ, data[start:start+length])
		if sf == nil {
			res.SubframesBad++
			continue
		}
		res.SubframesOk++

		d.update(sf)
	}

	if d.handler != nil {
		d.handler(&d.data)
	}
	return res
}

// Data returns the current cumulative telemetry record.
func (d *RS41Decoder) Data() *SondeData {
	return &d.data
}

// Calibration exposes the assembler for status reporting.
func (d *RS41Decoder) Calibration() *CalibrationAssembler {
	return d.calib
}

func (d *RS41Decoder) update(sf Subframe) {
	switch s := sf.(type) {
	case StatusSubframe:
		d.calib.Apply(s.FragSeq, s.FragData[:])

		d.data.Calibrated = d.calib.Calibrated()
		d.data.Serial = strings.TrimRight(s.Serial, "\x00")
		d.data.Seq = s.FrameSeq
		d.data.BatteryVoltage = s.BatteryVoltage
		if t := d.calib.Data().BurstkillTimer; t == 0xFFFF {
			d.data.BurstKill = -1
		} else {
			d.data.BurstKill = int(t)
		}

	case PTUSubframe:
		var cal = d.calib.Data()
		d.data.Temp = ptuTemperature(&s, cal)
		d.data.RH = ptuHumidity(&s, cal)
		if p := ptuPressure(&s, cal); p > 0 {
			/* Pressure sensor is optional */
			d.hasPressureSensor = true
			d.data.Pressure = p
		}
		d.data.DewPoint = dewPoint(d.data.Temp, d.data.RH)

	case GPSPosSubframe:
		var x = float64(s.X) / 100.0
		var y = float64(s.Y) / 100.0
		var z = float64(s.Z) / 100.0
		var dx = float64(s.VX) / 100.0
		var dy = float64(s.VY) / 100.0
		var dz = float64(s.VZ) / 100.0

		d.data.Lat, d.data.Lon, d.data.Alt = ecefToLLA(x, y, z)
		d.data.Speed, d.data.Heading, d.data.Climb =
			ecefToSpdHdg(d.data.Lat, d.data.Lon, dx, dy, dz)
		d.data.Satellites = s.Satellites

		if !d.hasPressureSensor {
			d.data.Pressure = altitudeToPressure(d.data.Alt)
		}

	case GPSInfoSubframe:
		d.data.Time = gpsTimeToUTC(s.Week, s.TOW)

	case XDATASubframe:
		d.data.AuxData = s.ASCII
	}
}
