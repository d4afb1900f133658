// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	RS41 calibration table: layout, decoding, incremental
 *		assembly from status-subframe fragments.
 *
 *		The sonde broadcasts its 816-byte calibration block one
 *		16-byte fragment per status subframe.  A completion
 *		bitmap tracks which fragments have landed; until all 51
 *		are in, computations run against a default table captured
 *		from a live sonde so approximate readings are available
 *		immediately.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
	"math"
	"strings"
)

// Byte offsets of the calibration fields used by the telemetry
// computations.  All multi-byte values little-endian; coefficients are
// IEEE-754 float32.
const (
	calibSerialOff     = 0x00D // char[8]
	calibTRefOff       = 0x03D // f32[2], reference resistances (ohm)
	calibTTempPolyOff  = 0x04D // f32[3], resistance -> temperature
	calibTCalibOff     = 0x059 // f32[7], [0] gain, [1..6] correction poly
	calibRHRefOff      = 0x075 // f32[2], reference capacitances
	calibRHMatrixOff   = 0x07D // f32[7][6], humidity response surface
	calibTHTempPolyOff = 0x125 // f32[3], RH sensor temperature poly
	calibTHCalibOff    = 0x131 // f32[7]
	calibRHCapOff      = 0x1FC // f32[2], capacitance normalization
	calibBurstkillOff  = 0x316 // u16 seconds, 0xFFFF = disabled
)

// Calibration holds the decoded coefficients.
type Calibration struct {
	Serial         string
	TRef           [2]float64
	TTempPoly      [3]float64
	TCalibCoeff    [7]float64
	RHRef          [2]float64
	RHCalibCoeff   [7][6]float64
	THTempPoly     [3]float64
	THCalibCoeff   [7]float64
	RHCapCalib     [2]float64
	BurstkillTimer uint16
}

func calibFloat(raw []byte, off int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4])))
}

// decodeCalibration extracts the typed coefficients from a raw table.
func decodeCalibration(raw []byte) Calibration {
	var c Calibration

	c.Serial = strings.TrimRight(string(raw[calibSerialOff:calibSerialOff+RS41_SERIAL_LEN]), "\x00")
	for i := 0; i < 2; i++ {
		c.TRef[i] = calibFloat(raw, calibTRefOff+4*i)
		c.RHRef[i] = calibFloat(raw, calibRHRefOff+4*i)
		c.RHCapCalib[i] = calibFloat(raw, calibRHCapOff+4*i)
	}
	for i := 0; i < 3; i++ {
		c.TTempPoly[i] = calibFloat(raw, calibTTempPolyOff+4*i)
		c.THTempPoly[i] = calibFloat(raw, calibTHTempPolyOff+4*i)
	}
	for i := 0; i < 7; i++ {
		c.TCalibCoeff[i] = calibFloat(raw, calibTCalibOff+4*i)
		c.THCalibCoeff[i] = calibFloat(raw, calibTHCalibOff+4*i)
	}
	for i := 0; i < 7; i++ {
		for j := 0; j < 6; j++ {
			c.RHCalibCoeff[i][j] = calibFloat(raw, calibRHMatrixOff+4*(6*i+j))
		}
	}
	c.BurstkillTimer = binary.LittleEndian.Uint16(raw[calibBurstkillOff : calibBurstkillOff+2])

	return c
}

// Completion bitmap: one bit per fragment, fragment f at byte f/8 bit
// 7-f%8.  All-set means nothing received; complete when all zero.
type calibBitmap [(RS41_CALIB_FRAGCOUNT + 7) / 8]byte

func (m *calibBitmap) reset() {
	for i := range m {
		m[i] = 0xFF
	}
	// Bits beyond the declared fragment count must never block
	// completeness.
	m[len(m)-1] &^= (1 << (7 - (RS41_CALIB_FRAGCOUNT-1)%8)) - 1
}

func (m *calibBitmap) clear(frag int) {
	m[frag/8] &^= 1 << (7 - frag%8)
}

func (m *calibBitmap) complete() bool {
	for _, b := range m {
		if b != 0 {
			return false
		}
	}
	return true
}

func (m *calibBitmap) missing() int {
	var n = 0
	for _, b := range m {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

/*------------------------------------------------------------------
 *
 * Name:	CalibrationAssembler
 *
 * Purpose:	Accumulate the calibration table fragment by fragment.
 *
 *		The calibrated flag turns true exactly once, when the
 *		last missing fragment lands, and stays true until Reset
 *		(input source change).  Fragments may arrive in any
 *		order and repeat; repeats just overwrite in place.
 *
 *----------------------------------------------------------------*/

type CalibrationAssembler struct {
	raw        [RS41_CALIB_SIZE]byte
	bitmap     calibBitmap
	calib      Calibration
	calibrated bool
}

func NewCalibrationAssembler() *CalibrationAssembler {
	var c = &CalibrationAssembler{}
	c.Reset()
	return c
}

// Reset reverts to the default table with no fragments received.
func (c *CalibrationAssembler) Reset() {
	copy(c.raw[:], rs41DefaultCalibData[:])
	c.bitmap.reset()
	c.calib = decodeCalibration(c.raw[:])
	c.calibrated = false
}

// Apply copies one fragment into the table and updates the calibrated
// flag.  Out-of-range fragment numbers are ignored.
func (c *CalibrationAssembler) Apply(fragSeq int, data []byte) {
	if fragSeq < 0 || fragSeq >= RS41_CALIB_FRAGCOUNT || len(data) < RS41_CALIB_FRAGSIZE {
		return
	}

	copy(c.raw[fragSeq*RS41_CALIB_FRAGSIZE:], data[:RS41_CALIB_FRAGSIZE])
	c.bitmap.clear(fragSeq)
	c.calib = decodeCalibration(c.raw[:])

	if !c.calibrated && c.bitmap.complete() {
		c.calibrated = true
	}
}

func (c *CalibrationAssembler) Calibrated() bool {
	return c.calibrated
}

func (c *CalibrationAssembler) MissingFragments() int {
	return c.bitmap.missing()
}

func (c *CalibrationAssembler) Data() *Calibration {
	return &c.calib
}

// DefaultCalibrationFragment returns one fragment of the built-in
// default table.  The signal generator broadcasts these round-robin
// the way a real sonde does.
func DefaultCalibrationFragment(i int) (frag [RS41_CALIB_FRAGSIZE]byte) {
	copy(frag[:], rs41DefaultCalibData[i*RS41_CALIB_FRAGSIZE:])
	return frag
}

/* Default calibration data, taken from a live radiosonde {{{ */
var rs41DefaultCalibData = [RS41_CALIB_SIZE]byte{
	0xec, 0x5c, 0x80, 0x57, 0x03, 0x00, 0x00, 0x0e, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x53, 0x33, 0x32, 0x32, 0x30, 0x36, 0x35, 0x30, 0xf7, 0x4e, 0x00,
	0x00, 0x58, 0x02, 0x12, 0x05, 0xb4, 0x3c, 0xa4, 0x06, 0x14, 0x87, 0x32,
	0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x03, 0x1e, 0x23,
	0xe8, 0x03, 0x01, 0x04, 0x00, 0x07, 0x00, 0xbf, 0x02, 0x91, 0xb3, 0x00,
	0x06, 0x00, 0x80, 0x3b, 0x44, 0x00, 0x80, 0x89, 0x44, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x3c, 0x42, 0x2a, 0xe9, 0x73, 0xc3, 0x5f, 0x28, 0x40,
	0x3e, 0xbb, 0x92, 0x09, 0x37, 0xdd, 0xd6, 0xa0, 0x3f, 0xc5, 0x52, 0xd6,
	0xbd, 0x54, 0xe4, 0xb5, 0x3b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x33, 0x99, 0x30,
	0x42, 0x6f, 0xd9, 0xa1, 0x40, 0xe1, 0x79, 0x29, 0xbb, 0x52, 0x98, 0x0f,
	0xc0, 0x5f, 0xc4, 0x1e, 0x41, 0xc3, 0x9f, 0x67, 0xc0, 0xe9, 0x6b, 0x59,
	0x42, 0x33, 0x9a, 0xba, 0xc2, 0x8e, 0xd2, 0x4e, 0x42, 0xc3, 0x7b, 0x1b,
	0x42, 0xf8, 0x6f, 0x51, 0x43, 0xf0, 0x37, 0xbd, 0xc3, 0xa8, 0xc5, 0x12,
	0x41, 0x93, 0x3d, 0x9c, 0x41, 0xeb, 0x41, 0x16, 0x43, 0x14, 0xe8, 0x16,
	0xc3, 0x45, 0x28, 0x8c, 0xc3, 0x09, 0x4b, 0x36, 0x43, 0x4f, 0xf6, 0x4a,
	0x45, 0x6f, 0x3a, 0x7f, 0x45, 0x86, 0x91, 0x69, 0xc3, 0xf1, 0xaf, 0xac,
	0x43, 0x8d, 0x37, 0x48, 0x43, 0x7b, 0x1f, 0xc2, 0xc3, 0x87, 0x1a, 0x62,
	0xc5, 0x00, 0x00, 0x00, 0x00, 0x54, 0xd7, 0x61, 0x43, 0xf4, 0x0c, 0x69,
	0xc3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x89, 0x20, 0xba, 0xc2, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x2a, 0xe9, 0x73, 0xc3, 0x5f, 0x28, 0x40,
	0x3e, 0xbb, 0x92, 0x09, 0x37, 0x80, 0xda, 0xa5, 0x3f, 0xa6, 0x1d, 0xc0,
	0xbc, 0x82, 0x9e, 0xb3, 0x3b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xff, 0xff, 0xff, 0xc6, 0x00, 0x41, 0x69, 0x30, 0x42, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xcd, 0xcc, 0xcc, 0x3d, 0xbd, 0xff, 0x4b, 0xbf,
	0x47, 0x49, 0x9e, 0xbd, 0x66, 0x36, 0xb1, 0x33, 0x5b, 0x39, 0x8b, 0xb7,
	0x1b, 0x8a, 0xf1, 0x39, 0x00, 0xe0, 0xaa, 0x44, 0xf0, 0x85, 0x49, 0x3c,
	0x00, 0x00, 0x00, 0x3f, 0x00, 0x00, 0x90, 0x40, 0x00, 0x00, 0xa0, 0x3f,
	0x00, 0x00, 0x00, 0x00, 0x33, 0x33, 0x33, 0x3f, 0x68, 0x91, 0x2d, 0x3f,
	0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xe6, 0x96, 0x7e, 0x3f, 0x97, 0x82, 0x9b, 0xb8, 0xaa, 0x39, 0x23, 0x30,
	0xe4, 0x16, 0xcd, 0x29, 0xb5, 0x26, 0x5a, 0xa2, 0xfd, 0xeb, 0x02, 0x1a,
	0xec, 0x51, 0x38, 0x3e, 0x33, 0x33, 0x33, 0x3f, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xf6, 0x7f, 0x74, 0x40, 0x3b, 0x36, 0x82, 0xbf, 0xe5, 0x2f, 0x98, 0x3d,
	0x00, 0x01, 0x00, 0x01, 0xac, 0xac, 0xba, 0xbe, 0x0c, 0xe6, 0xab, 0x3e,
	0x00, 0x00, 0x00, 0x40, 0x08, 0x39, 0xad, 0x41, 0x89, 0x04, 0xaf, 0x41,
	0x00, 0x00, 0x40, 0x40, 0xff, 0xff, 0xff, 0xc6, 0xff, 0xff, 0xff, 0xc6,
	0xff, 0xff, 0xff, 0xc6, 0xff, 0xff, 0xff, 0xc6, 0x52, 0x53, 0x34, 0x31,
	0x2d, 0x53, 0x47, 0x00, 0x00, 0x00, 0x52, 0x53, 0x4d, 0x34, 0x31, 0x32,
	0x00, 0x00, 0x00, 0x00, 0x53, 0x33, 0x31, 0x31, 0x30, 0x33, 0x31, 0x34,
	0x00, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x00,
	0x00, 0x00, 0x00, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x30, 0x00,
	0x00, 0x81, 0x23, 0x00, 0x00, 0x1a, 0x02, 0x00, 0x02, 0x7b, 0xe5, 0xb5,
	0x3f, 0xaa, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xd5, 0xca, 0xa4, 0x3d, 0x5d, 0xa3,
	0x65, 0x39, 0x7f, 0x87, 0x22, 0x39, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x09, 0xfe, 0xb7, 0xbc, 0xc8, 0x96, 0xe5, 0x3e, 0x31, 0x99,
	0x1a, 0xbf, 0x12, 0xda, 0xda, 0x3e, 0xb6, 0x84, 0x68, 0xc1, 0x67, 0x55,
	0x57, 0x42, 0xd6, 0xc5, 0xaa, 0xc1, 0x84, 0x9e, 0xc7, 0xc1, 0xfd, 0xbc,
	0x3e, 0x41, 0x1e, 0x16, 0x4c, 0xc2, 0x7c, 0xb8, 0x8b, 0x41, 0xbb, 0x32,
	0xf4, 0x41, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x01, 0x00, 0x14, 0x00,
	0xc8, 0x00, 0x46, 0x00, 0x3c, 0x00, 0x05, 0x00, 0x3c, 0x00, 0x18, 0x01,
	0x9e, 0x62, 0xd5, 0xb8, 0x6c, 0x9c, 0x07, 0xb1, 0x00, 0x3c, 0x88, 0x77,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf3, 0x6a, 0xc0, 0xf1,
	0x5b, 0x02, 0x07, 0x00, 0x00, 0x05, 0x6d, 0x01, 0x1b, 0x94, 0x00, 0x00,
}

/* }}} */
