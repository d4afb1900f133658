// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Build bit-exact on-air frames from literal field
 *		values.  Exercised by the skysonde-gen tool and the
 *		loopback tests; telemetry produced here must decode
 *		back to the same values through the full pipeline.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
	"math"
)

// SubframePayload is one marshalled subframe body, ready for framing.
type SubframePayload struct {
	Type    byte
	Payload []byte
}

type FrameEncoder struct {
	rs *rs_t
}

func NewFrameEncoder() *FrameEncoder {
	return &FrameEncoder{
		rs: init_rs_char(8, RS41_REEDSOLOMON_POLY, RS41_REEDSOLOMON_FIRST_ROOT,
			RS41_REEDSOLOMON_ROOT_SKIP, RS41_REEDSOLOMON_NROOTS),
	}
}

// Encode packs the subframes into a regular (non-extended) frame,
// computes parity and scrambles to on-air form.  Subframes that do not
// fit are dropped; the remainder of the payload is padded with empty
// subframes.
func (e *FrameEncoder) Encode(subframes []SubframePayload) []byte {
	return e.encode(subframes, RS41_FLAG_REGULAR)
}

// EncodeExtended is Encode with the XDATA extension region in play:
// the subframe payload spans the full 461 bytes and the Reed-Solomon
// codewords run at full length instead of shortened.
func (e *FrameEncoder) EncodeExtended(subframes []SubframePayload) []byte {
	return e.encode(subframes, RS41_FLAG_EXTENDED)
}

func (e *FrameEncoder) encode(subframes []SubframePayload, flag byte) []byte {
	var frame = make([]byte, RS41_FRAME_LEN)

	frame[RS41_FLAG_POS] = flag
	var data = frame[RS41_DATA_POS : RS41_DATA_POS+rs41FrameDataLen(frame)]

	var offset = 0
	for _, sf := range subframes {
		if offset+len(sf.Payload)+4 > len(data) {
			continue
		}
		data[offset] = sf.Type
		data[offset+1] = byte(len(sf.Payload))
		copy(data[offset+2:], sf.Payload)
		binary.LittleEndian.PutUint16(data[offset+2+len(sf.Payload):], crc16(sf.Payload))
		offset += len(sf.Payload) + 4
	}

	/* Pad with empty subframes so the decoder's walk stays clean */
	for offset+4 <= len(data) {
		data[offset] = RS41_SFTYPE_EMPTY
		data[offset+1] = 0
		binary.LittleEndian.PutUint16(data[offset+2:], crc16(nil))
		offset += 4
	}

	rs41FECEncode(e.rs, frame)
	rs41Scramble(frame)
	copy(frame[:RS41_SYNC_LEN], rs41Syncword[:])
	return frame
}

// EncodeStatus marshals identity, battery and one calibration table
// fragment.
func EncodeStatus(s StatusSubframe) SubframePayload {
	var p = make([]byte, statusMinLen)
	binary.LittleEndian.PutUint16(p[0:2], s.FrameSeq)
	copy(p[2:2+RS41_SERIAL_LEN], s.Serial)
	p[10] = byte(math.Round(s.BatteryVoltage * 10))
	p[statusFragSeqOff] = byte(s.FragSeq)
	copy(p[statusFragDataOff:], s.FragData[:])
	return SubframePayload{Type: RS41_SFTYPE_INFO, Payload: p}
}

func EncodePTU(s PTUSubframe) SubframePayload {
	var p = make([]byte, 36)
	var channels = []uint32{
		s.TempMain, s.TempRef1, s.TempRef2,
		s.RHMain, s.RHRef1, s.RHRef2,
		s.RHTempMain, s.RHTempRef1, s.RHTempRef2,
		s.PressureMain, s.PressureRef1, s.PressureRef2,
	}
	for i, v := range channels {
		p[3*i] = byte(v)
		p[3*i+1] = byte(v >> 8)
		p[3*i+2] = byte(v >> 16)
	}
	return SubframePayload{Type: RS41_SFTYPE_PTU, Payload: p}
}

func EncodeGPSPos(s GPSPosSubframe) SubframePayload {
	var p = make([]byte, 21)
	binary.LittleEndian.PutUint32(p[0:4], uint32(s.X))
	binary.LittleEndian.PutUint32(p[4:8], uint32(s.Y))
	binary.LittleEndian.PutUint32(p[8:12], uint32(s.Z))
	binary.LittleEndian.PutUint16(p[12:14], uint16(s.VX))
	binary.LittleEndian.PutUint16(p[14:16], uint16(s.VY))
	binary.LittleEndian.PutUint16(p[16:18], uint16(s.VZ))
	p[18] = byte(s.Satellites)
	p[19] = byte(s.SpeedAcc)
	p[20] = byte(s.PDOP)
	return SubframePayload{Type: RS41_SFTYPE_GPSPOS, Payload: p}
}

func EncodeGPSInfo(s GPSInfoSubframe) SubframePayload {
	var p = make([]byte, 6)
	binary.LittleEndian.PutUint16(p[0:2], s.Week)
	binary.LittleEndian.PutUint32(p[2:6], s.TOW)
	return SubframePayload{Type: RS41_SFTYPE_GPSINFO, Payload: p}
}

func EncodeXDATA(s XDATASubframe) SubframePayload {
	var p = make([]byte, 1+len(s.ASCII))
	copy(p[1:], s.ASCII)
	return SubframePayload{Type: RS41_SFTYPE_XDATA, Payload: p}
}

// NRZSamples expands on-air bytes into a baseband NRZ sample stream,
// MSB first, bit 1 high.
func NRZSamples(onAir []byte, samplesPerSymbol int) []float64 {
	var out = make([]float64, 0, len(onAir)*8*samplesPerSymbol)
	for _, b := range onAir {
		for bit := 7; bit >= 0; bit-- {
			var level = -1.0
			if b>>uint(bit)&1 == 1 {
				level = 1.0
			}
			for s := 0; s < samplesPerSymbol; s++ {
				out = append(out, level)
			}
		}
	}
	return out
}
