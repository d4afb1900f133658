// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_crc16_check_value(t *testing.T) {
	// CCITT-FALSE check value from the usual CRC catalogues.
	assert.Equal(t, uint16(0x29B1), crc16([]byte("123456789")))
}

func Test_crcCheck(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOf(rapid.Byte()).Draw(t, "payload")

		var trailer = make([]byte, 2)
		binary.LittleEndian.PutUint16(trailer, crc16(payload))
		require.True(t, crcCheck(payload, trailer))

		if len(payload) > 0 {
			var pos = rapid.IntRange(0, len(payload)-1).Draw(t, "pos")
			var bit = rapid.IntRange(0, 7).Draw(t, "bit")
			payload[pos] ^= 1 << bit
			assert.False(t, crcCheck(payload, trailer), "single bit flip must fail the CRC")
		}
	})
}

func Test_decodeSubframe_status(t *testing.T) {
	var payload = make([]byte, statusMinLen)
	binary.LittleEndian.PutUint16(payload[0:2], 4919)
	copy(payload[2:], "S3220650")
	payload[10] = 29 // 2.9 V
	payload[statusFragSeqOff] = 17
	for i := 0; i < RS41_CALIB_FRAGSIZE; i++ {
		payload[statusFragDataOff+i] = byte(i + 1)
	}

	var sf = decodeSubframe(RS41_SFTYPE_INFO, payload)
	require.NotNil(t, sf)
	status, ok := sf.(StatusSubframe)
	require.True(t, ok)

	assert.Equal(t, uint16(4919), status.FrameSeq)
	assert.Equal(t, "S3220650", status.Serial)
	assert.InDelta(t, 2.9, status.BatteryVoltage, 1e-9)
	assert.Equal(t, 17, status.FragSeq)
	assert.Equal(t, byte(16), status.FragData[15])
}

func Test_decodeSubframe_ptu(t *testing.T) {
	var payload = make([]byte, 36)
	for ch := 0; ch < 12; ch++ {
		var v = uint32(100000 + 1000*ch)
		payload[3*ch+0] = byte(v)
		payload[3*ch+1] = byte(v >> 8)
		payload[3*ch+2] = byte(v >> 16)
	}

	var sf = decodeSubframe(RS41_SFTYPE_PTU, payload)
	ptu, ok := sf.(PTUSubframe)
	require.True(t, ok)

	assert.Equal(t, uint32(100000), ptu.TempMain)
	assert.Equal(t, uint32(102000), ptu.TempRef2)
	assert.Equal(t, uint32(103000), ptu.RHMain)
	assert.Equal(t, uint32(106000), ptu.RHTempMain)
	assert.Equal(t, uint32(111000), ptu.PressureRef2)
}

func Test_decodeSubframe_gpspos(t *testing.T) {
	var payload = make([]byte, 21)
	var x int32 = -123456789
	var z int32 = -500000000
	var vx int16 = -1500
	var vz int16 = -350
	binary.LittleEndian.PutUint32(payload[0:4], uint32(x))
	binary.LittleEndian.PutUint32(payload[4:8], 400000000)
	binary.LittleEndian.PutUint32(payload[8:12], uint32(z))
	binary.LittleEndian.PutUint16(payload[12:14], uint16(vx))
	binary.LittleEndian.PutUint16(payload[14:16], 2500)
	binary.LittleEndian.PutUint16(payload[16:18], uint16(vz))
	payload[18] = 9
	payload[19] = 4
	payload[20] = 13

	var sf = decodeSubframe(RS41_SFTYPE_GPSPOS, payload)
	pos, ok := sf.(GPSPosSubframe)
	require.True(t, ok)

	assert.Equal(t, int32(-123456789), pos.X)
	assert.Equal(t, int32(400000000), pos.Y)
	assert.Equal(t, int32(-500000000), pos.Z)
	assert.Equal(t, int16(-1500), pos.VX)
	assert.Equal(t, int16(2500), pos.VY)
	assert.Equal(t, int16(-350), pos.VZ)
	assert.Equal(t, 9, pos.Satellites)
	assert.Equal(t, 4, pos.SpeedAcc)
	assert.Equal(t, 13, pos.PDOP)
}

func Test_decodeSubframe_gpsinfo(t *testing.T) {
	var payload = []byte{0x29, 0x09, 0x00, 0xdc, 0x05, 0x12} // week 2345, TOW 302384640
	var sf = decodeSubframe(RS41_SFTYPE_GPSINFO, payload)
	info, ok := sf.(GPSInfoSubframe)
	require.True(t, ok)

	assert.Equal(t, uint16(2345), info.Week)
	assert.Equal(t, uint32(0x1205dc00), info.TOW)
}

func Test_decodeSubframe_xdata(t *testing.T) {
	var sf = decodeSubframe(RS41_SFTYPE_XDATA, append([]byte{0}, "0501031B2C5D"...))
	xd, ok := sf.(XDATASubframe)
	require.True(t, ok)
	assert.Equal(t, "0501031B2C5D", xd.ASCII)
}

func Test_decodeSubframe_short_payloads(t *testing.T) {
	assert.Nil(t, decodeSubframe(RS41_SFTYPE_INFO, make([]byte, statusMinLen-1)))
	assert.Nil(t, decodeSubframe(RS41_SFTYPE_PTU, make([]byte, 35)))
	assert.Nil(t, decodeSubframe(RS41_SFTYPE_GPSPOS, make([]byte, 20)))
	assert.Nil(t, decodeSubframe(RS41_SFTYPE_GPSINFO, make([]byte, 5)))
	assert.Nil(t, decodeSubframe(RS41_SFTYPE_XDATA, nil))
	assert.Nil(t, decodeSubframe(0x42, []byte{1, 2, 3}))
}

func Test_decodeSubframe_filler_types(t *testing.T) {
	assert.Equal(t, EmptySubframe{}, decodeSubframe(RS41_SFTYPE_EMPTY, nil))
	assert.Equal(t, RawGPSSubframe{}, decodeSubframe(RS41_SFTYPE_GPSRAW, []byte{1, 2}))
}
