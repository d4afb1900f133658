// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Build one on-air frame carrying the full subframe set for loopback
// testing.
func testFrame(e *FrameEncoder, seq int, lat, lon, alt float64) []byte {
	var x, y, z = LLAToECEF(lat, lon, alt)
	var vx, vy, vz = ENUToECEFVel(lat, lon, 3.0, 4.0, 5.0)
	var week, ms = UTCToGPSTime(time.Date(2024, time.December, 18, 11, 59, 42, 0, time.UTC))

	return e.Encode([]SubframePayload{
		EncodeStatus(StatusSubframe{
			FrameSeq:       uint16(seq),
			Serial:         "S3220650",
			BatteryVoltage: 2.9,
			FragSeq:        seq % RS41_CALIB_FRAGCOUNT,
			FragData:       DefaultCalibrationFragment(seq % RS41_CALIB_FRAGCOUNT),
		}),
		EncodePTU(PTUSubframe{
			TempMain: 150000, TempRef1: 130000, TempRef2: 190000,
			RHMain: 162700, RHRef1: 140000, RHRef2: 180000,
			RHTempMain: 150000, RHTempRef1: 130000, RHTempRef2: 190000,
		}),
		EncodeGPSPos(GPSPosSubframe{
			X: int32(x * 100), Y: int32(y * 100), Z: int32(z * 100),
			VX: int16(vx * 100), VY: int16(vy * 100), VZ: int16(vz * 100),
			Satellites: 9,
		}),
		EncodeGPSInfo(GPSInfoSubframe{Week: week, TOW: ms}),
		EncodeXDATA(XDATASubframe{ASCII: "0501031B2C5D"}),
	})
}

func Test_RS41Decoder_loopback(t *testing.T) {
	var e = NewFrameEncoder()

	var calls = 0
	var d = NewRS41Decoder(func(*SondeData) { calls++ })

	const lat, lon, alt = 52.2297, 21.0122, 12345.0

	// Enough frames to broadcast every calibration fragment once.
	for seq := 0; seq < RS41_CALIB_FRAGCOUNT; seq++ {
		var res = d.Process(testFrame(e, seq, lat, lon, alt))
		require.True(t, res.FECOk)
		assert.Equal(t, 0, res.Corrected)
		assert.Equal(t, 0, res.SubframesBad)
		assert.GreaterOrEqual(t, res.SubframesOk, 5)
	}
	assert.Equal(t, RS41_CALIB_FRAGCOUNT, calls)

	var data = d.Data()
	assert.Equal(t, "S3220650", data.Serial)
	assert.Equal(t, uint16(RS41_CALIB_FRAGCOUNT-1), data.Seq)
	assert.True(t, data.Calibrated)
	assert.InDelta(t, 2.9, data.BatteryVoltage, 1e-9)
	assert.Equal(t, 30600, data.BurstKill)

	// Position survives the centimeter quantization of the GPS subframe.
	assert.InDelta(t, lat, data.Lat, 1e-5)
	assert.InDelta(t, lon, data.Lon, 1e-5)
	assert.InDelta(t, alt, data.Alt, 0.05)
	assert.InDelta(t, 5.0, data.Speed, 0.05) // hypot(3, 4)
	assert.InDelta(t, 36.87, data.Heading, 0.5)
	assert.InDelta(t, 5.0, data.Climb, 0.05)
	assert.Equal(t, 9, data.Satellites)

	assert.InDelta(t, -30.097935240550278, data.Temp, 1e-9)
	assert.InDelta(t, 58.80962007302673, data.RH, 1e-9)
	assert.InDelta(t, altitudeToPressure(data.Alt), data.Pressure, 1e-9)

	assert.Equal(t, time.Date(2024, time.December, 18, 11, 59, 42, 0, time.UTC), data.Time)
	assert.Equal(t, "0501031B2C5D", data.AuxData)
}

// An auxiliary payload too large for the regular frame layout forces
// the extension region into play.
func Test_RS41Decoder_extended_frame_loopback(t *testing.T) {
	var e = NewFrameEncoder()
	var d = NewRS41Decoder(nil)

	var aux = strings.Repeat("0501031B2C5D", 17) // 204 bytes of XDATA
	var subframes = []SubframePayload{
		EncodeStatus(StatusSubframe{
			FrameSeq:       3,
			Serial:         "S3220650",
			BatteryVoltage: 2.9,
			FragSeq:        0,
			FragData:       DefaultCalibrationFragment(0),
		}),
		EncodePTU(PTUSubframe{
			TempMain: 150000, TempRef1: 130000, TempRef2: 190000,
			RHMain: 162700, RHRef1: 140000, RHRef2: 180000,
			RHTempMain: 150000, RHTempRef1: 130000, RHTempRef2: 190000,
		}),
		EncodeGPSInfo(GPSInfoSubframe{Week: 2345, TOW: 302400000}),
		EncodeXDATA(XDATASubframe{ASCII: aux}),
	}

	// The same subframe set does not fit a regular frame, so the
	// encoder drops the auxiliary payload there.
	var res = d.Process(e.Encode(subframes))
	require.True(t, res.FECOk)
	assert.Empty(t, d.Data().AuxData)

	var frame = e.EncodeExtended(subframes)
	require.Len(t, frame, RS41_FRAME_LEN)

	res = d.Process(frame)
	require.True(t, res.FECOk)
	assert.Equal(t, 0, res.Corrected)
	assert.Equal(t, 0, res.SubframesBad)
	assert.GreaterOrEqual(t, res.SubframesOk, 4)

	var data = d.Data()
	assert.Equal(t, "S3220650", data.Serial)
	assert.Equal(t, aux, data.AuxData)
	assert.Equal(t, time.Date(2024, time.December, 18, 11, 59, 42, 0, time.UTC), data.Time)
}

// Channel errors anywhere in an extended frame, extension region
// included, stay correctable up to the Reed-Solomon bound.
func Test_RS41Decoder_extended_frame_corrects_errors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var e = NewFrameEncoder()
		var d = NewRS41Decoder(nil)

		var aux = strings.Repeat("A5", 100)
		var frame = e.EncodeExtended([]SubframePayload{
			EncodeStatus(StatusSubframe{
				FrameSeq: 9,
				Serial:   "S3220650",
				FragSeq:  0,
				FragData: DefaultCalibrationFragment(0),
			}),
			EncodeXDATA(XDATASubframe{ASCII: aux}),
		})

		var nErrors = rapid.IntRange(1, RS41_REEDSOLOMON_NROOTS/2).Draw(t, "nErrors")
		var positions = rapid.SliceOfNDistinct(
			rapid.IntRange(RS41_SYNC_LEN, RS41_FRAME_LEN-2), nErrors, nErrors, rapid.ID[int],
		).Draw(t, "positions")
		for _, pos := range positions {
			// The frame-type byte selects the codeword length, so it
			// stays intact.
			if pos >= RS41_FLAG_POS {
				pos++
			}
			frame[pos] ^= rapid.ByteRange(1, 255).Draw(t, "flip")
		}

		var res = d.Process(frame)
		require.True(t, res.FECOk)
		assert.Equal(t, nErrors, res.Corrected)
		assert.Equal(t, 0, res.SubframesBad)
		assert.Equal(t, aux, d.Data().AuxData)
	})
}

func Test_RS41Decoder_corrects_channel_errors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var e = NewFrameEncoder()
		var d = NewRS41Decoder(nil)

		var frame = testFrame(e, 1, 52.0, 21.0, 5000.0)

		// Corrupt up to 12 bytes of the coded region past the sync word;
		// the FEC must still recover every subframe.
		var nErrors = rapid.IntRange(1, RS41_REEDSOLOMON_NROOTS/2).Draw(t, "nErrors")
		var positions = rapid.SliceOfNDistinct(
			rapid.IntRange(RS41_SYNC_LEN, RS41_DATA_POS+RS41_DATA_LEN-1), nErrors, nErrors, rapid.ID[int],
		).Draw(t, "positions")
		for _, pos := range positions {
			frame[pos] ^= rapid.ByteRange(1, 255).Draw(t, "flip")
		}

		var res = d.Process(frame)
		require.True(t, res.FECOk)
		assert.Equal(t, nErrors, res.Corrected)
		assert.Equal(t, 0, res.SubframesBad)
		assert.Equal(t, "S3220650", d.Data().Serial)
	})
}

func Test_RS41Decoder_bad_subframe_crc(t *testing.T) {
	var e = NewFrameEncoder()
	var d = NewRS41Decoder(nil)

	var frame = testFrame(e, 1, 52.0, 21.0, 5000.0)

	// Re-frame with a corrupted status payload but intact parity, so
	// the FEC "corrects" nothing and the CRC is the only defense.
	rs41Descramble(frame)
	frame[RS41_DATA_POS+2] ^= 0xFF // status payload byte
	rs41FECEncode(e.rs, frame)
	rs41Scramble(frame)

	var res = d.Process(frame)
	assert.True(t, res.FECOk)
	assert.Equal(t, 1, res.SubframesBad, "the corrupted status subframe must be dropped")
	assert.GreaterOrEqual(t, res.SubframesOk, 4)
	assert.Empty(t, d.Data().Serial, "a bad subframe must not update telemetry")
}

func Test_RS41Decoder_uncorrectable_frame_still_walked(t *testing.T) {
	var e = NewFrameEncoder()

	var calls = 0
	var d = NewRS41Decoder(func(*SondeData) { calls++ })

	var frame = testFrame(e, 1, 52.0, 21.0, 5000.0)

	// Hammer the parity region so both Reed-Solomon blocks fail.  The
	// payload itself is untouched, so every subframe CRC still passes.
	rs41Descramble(frame)
	for i := 0; i < RS41_RS_LEN; i++ {
		frame[RS41_PARITY_POS+i] ^= 0xA7
	}
	rs41Scramble(frame)

	var res = d.Process(frame)
	assert.False(t, res.FECOk)
	assert.Equal(t, 0, res.SubframesBad)
	assert.GreaterOrEqual(t, res.SubframesOk, 5)
	assert.Equal(t, 1, calls, "handler runs even when FEC fails")
	assert.Equal(t, "S3220650", d.Data().Serial)
}

func Test_RS41Decoder_Reset(t *testing.T) {
	var e = NewFrameEncoder()
	var d = NewRS41Decoder(nil)

	d.Process(testFrame(e, 7, 52.0, 21.0, 5000.0))
	require.NotEmpty(t, d.Data().Serial)

	d.Reset()
	assert.Empty(t, d.Data().Serial)
	assert.False(t, d.Data().Calibrated)
	assert.Equal(t, RS41_CALIB_FRAGCOUNT, d.Calibration().MissingFragments())
}

// Full digital chain: on-air bytes through slicing and framing back to
// telemetry.
func Test_RS41Decoder_slicer_framer_chain(t *testing.T) {
	var e = NewFrameEncoder()
	var s = NewSlicer()
	var f = NewFrameAccumulator()
	var d = NewRS41Decoder(nil)

	var decoded = 0
	for seq := 0; seq < 3; seq++ {
		var samples = NRZSamples(testFrame(e, seq, 52.0, 21.0, 5000.0), 1)
		for _, frame := range f.Process(s.Process(samples)) {
			var res = d.Process(frame)
			require.True(t, res.FECOk)
			decoded++
		}
	}

	assert.Equal(t, 3, decoded)
	assert.Equal(t, uint16(2), d.Data().Seq)
	assert.Equal(t, "S3220650", d.Data().Serial)
}
