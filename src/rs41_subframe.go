// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Subframe splitting and decoding.
 *
 *		A frame payload is a sequence of subframes: 1-byte type,
 *		1-byte length, payload, 2-byte little-endian
 *		CRC-16/CCITT-FALSE over the payload.  Each known type
 *		decodes to its own record; every field is extracted at a
 *		fixed offset with explicit endianness, never by aliasing
 *		the raw buffer.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
)

var ccittFalseTable = func() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		var crc = uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ CCITT_FALSE_POLY
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}()

func crc16(data []byte) uint16 {
	var crc uint16 = CCITT_FALSE_INIT
	for _, b := range data {
		crc = (crc << 8) ^ ccittFalseTable[byte(crc>>8)^b]
	}
	return crc
}

// Whether the two trailing CRC bytes match the payload.
func crcCheck(payload []byte, trailer []byte) bool {
	return crc16(payload) == binary.LittleEndian.Uint16(trailer)
}

// Subframe is the closed set of RS41 subframe kinds.  The decoder's
// dispatch switches exhaustively over these types.
type Subframe interface {
	subframeKind() string
}

// Status / identity subframe (type 0x79).  Also the carrier for
// calibration table fragments.
type StatusSubframe struct {
	FrameSeq       uint16
	Serial         string
	BatteryVoltage float64 // volts
	FragSeq        int
	FragData       [RS41_CALIB_FRAGSIZE]byte
}

// PTU subframe (type 0x7A): four sensor channels, each measured as a
// 24-bit main reading bracketed by two reference readings.
type PTUSubframe struct {
	TempMain, TempRef1, TempRef2 uint32
	RHMain, RHRef1, RHRef2       uint32
	RHTempMain, RHTempRef1       uint32
	RHTempRef2                   uint32
	PressureMain, PressureRef1   uint32
	PressureRef2                 uint32
}

// GPS position subframe (type 0x7B): ECEF position in cm, velocity in
// cm/s.
type GPSPosSubframe struct {
	X, Y, Z    int32
	VX, VY, VZ int16
	Satellites int
	SpeedAcc   int
	PDOP       int
}

// GPS time subframe (type 0x7C).
type GPSInfoSubframe struct {
	Week uint16
	TOW  uint32 // milliseconds into the GPS week
}

// Auxiliary instrument data (type 0x7E), e.g. an ozone sensor chain.
type XDATASubframe struct {
	ASCII string
}

// Raw GPS measurements (type 0x7D).  Received but not interpreted.
type RawGPSSubframe struct{}

// Idle filler (type 0x76).
type EmptySubframe struct{}

func (StatusSubframe) subframeKind() string  { return "status" }
func (PTUSubframe) subframeKind() string     { return "ptu" }
func (GPSPosSubframe) subframeKind() string  { return "gps-position" }
func (GPSInfoSubframe) subframeKind() string { return "gps-info" }
func (XDATASubframe) subframeKind() string   { return "xdata" }
func (RawGPSSubframe) subframeKind() string  { return "gps-raw" }
func (EmptySubframe) subframeKind() string   { return "empty" }

// 24-bit little-endian ADC reading.
func adc24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// Fixed payload offsets within the status subframe.
const (
	statusFragSeqOff  = 23
	statusFragDataOff = 24
	statusMinLen      = statusFragDataOff + RS41_CALIB_FRAGSIZE
)

/*------------------------------------------------------------------
 *
 * Name:	decodeSubframe
 *
 * Purpose:	Decode one CRC-validated subframe payload into its
 *		typed record.
 *
 * Returns:	The decoded record, or nil when the payload is too
 *		short for its declared type or the type is unknown.
 *		Either way the caller just moves on to the next
 *		subframe.
 *
 *----------------------------------------------------------------*/

func decodeSubframe(typ byte, payload []byte) Subframe {
	switch typ {
	case RS41_SFTYPE_INFO:
		if len(payload) < statusMinLen {
			return nil
		}
		var sf = StatusSubframe{
			FrameSeq:       binary.LittleEndian.Uint16(payload[0:2]),
			Serial:         string(payload[2 : 2+RS41_SERIAL_LEN]),
			BatteryVoltage: float64(payload[10]) / 10.0,
			FragSeq:        int(payload[statusFragSeqOff]),
		}
		copy(sf.FragData[:], payload[statusFragDataOff:statusFragDataOff+RS41_CALIB_FRAGSIZE])
		return sf

	case RS41_SFTYPE_PTU:
		if len(payload) < 36 {
			return nil
		}
		return PTUSubframe{
			TempMain:     adc24(payload[0:]),
			TempRef1:     adc24(payload[3:]),
			TempRef2:     adc24(payload[6:]),
			RHMain:       adc24(payload[9:]),
			RHRef1:       adc24(payload[12:]),
			RHRef2:       adc24(payload[15:]),
			RHTempMain:   adc24(payload[18:]),
			RHTempRef1:   adc24(payload[21:]),
			RHTempRef2:   adc24(payload[24:]),
			PressureMain: adc24(payload[27:]),
			PressureRef1: adc24(payload[30:]),
			PressureRef2: adc24(payload[33:]),
		}

	case RS41_SFTYPE_GPSPOS:
		if len(payload) < 21 {
			return nil
		}
		return GPSPosSubframe{
			X:          int32(binary.LittleEndian.Uint32(payload[0:4])),
			Y:          int32(binary.LittleEndian.Uint32(payload[4:8])),
			Z:          int32(binary.LittleEndian.Uint32(payload[8:12])),
			VX:         int16(binary.LittleEndian.Uint16(payload[12:14])),
			VY:         int16(binary.LittleEndian.Uint16(payload[14:16])),
			VZ:         int16(binary.LittleEndian.Uint16(payload[16:18])),
			Satellites: int(payload[18]),
			SpeedAcc:   int(payload[19]),
			PDOP:       int(payload[20]),
		}

	case RS41_SFTYPE_GPSINFO:
		if len(payload) < 6 {
			return nil
		}
		return GPSInfoSubframe{
			Week: binary.LittleEndian.Uint16(payload[0:2]),
			TOW:  binary.LittleEndian.Uint32(payload[2:6]),
		}

	case RS41_SFTYPE_XDATA:
		if len(payload) < 1 {
			return nil
		}
		return XDATASubframe{ASCII: string(payload[1:])}

	case RS41_SFTYPE_GPSRAW:
		return RawGPSSubframe{}

	case RS41_SFTYPE_EMPTY:
		return EmptySubframe{}
	}

	return nil
}
