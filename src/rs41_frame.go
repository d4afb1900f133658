// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	RS41 frame-level transforms: descrambling and the
 *		interleaved Reed-Solomon error correction.
 *
 *		Both run in place on an exclusively owned frame buffer.
 *		The inverse (scramble, parity generation) also lives here
 *		so tests and the reference generator can build bit-exact
 *		frames.
 *
 *----------------------------------------------------------------*/

import (
	"math/bits"
)

// Undo the transmitter's whitening: per byte, reverse the bit order,
// then XOR with 0xFF and the PRN sequence, applied cyclically.  Not
// self-inverse; see rs41Scramble.
func rs41Descramble(frame []byte) {
	for i, b := range frame {
		frame[i] = 0xFF ^ bits.Reverse8(b) ^ rs41PRN[i%RS41_PRN_PERIOD]
	}
}

// Exact inverse of rs41Descramble, producing the on-air byte order.
func rs41Scramble(frame []byte) {
	for i, b := range frame {
		frame[i] = bits.Reverse8(0xFF ^ b ^ rs41PRN[i%RS41_PRN_PERIOD])
	}
}

// Whether the (descrambled) frame carries the extension region.
func rs41FrameExtended(frame []byte) bool {
	return frame[RS41_FLAG_POS] == RS41_FLAG_EXTENDED
}

// Usable subframe payload length for the (descrambled) frame.
func rs41FrameDataLen(frame []byte) int {
	if rs41FrameExtended(frame) {
		return RS41_DATA_LEN + RS41_XDATA_LEN
	}
	return RS41_DATA_LEN
}

// The Reed-Solomon codewords cover the frame-type byte plus the data
// (and extension) region: payload byte 2*i+b belongs to block b.
// Regular frames use a shortened code, zero padded up to K symbols.
func rs41ChunkLen(frame []byte) int {
	if rs41FrameExtended(frame) {
		return RS41_REEDSOLOMON_K
	}
	return (RS41_DATA_LEN + 1) / RS41_REEDSOLOMON_INTERLEAVING
}

/*------------------------------------------------------------------
 *
 * Name:	rs41FECCorrect
 *
 * Purpose:	Error correct a descrambled frame in place.
 *
 * Returns:	Number of symbols corrected, and false if any block had
 *		more errors than the code can correct.  An uncorrectable
 *		block leaves its received bytes untouched; the subframe
 *		CRCs are the backstop for whatever corruption remains.
 *
 *----------------------------------------------------------------*/

func rs41FECCorrect(rs *rs_t, frame []byte) (int, bool) {
	var chunkLen = rs41ChunkLen(frame)
	var payload = frame[RS41_FLAG_POS:]
	var parity = frame[RS41_PARITY_POS : RS41_PARITY_POS+RS41_RS_LEN]

	var block [RS41_REEDSOLOMON_N]byte
	var corrected = 0
	var valid = true

	for b := 0; b < RS41_REEDSOLOMON_INTERLEAVING; b++ {
		// Deinterleave
		for i := range block {
			block[i] = 0
		}
		for i := 0; i < chunkLen; i++ {
			block[i] = payload[RS41_REEDSOLOMON_INTERLEAVING*i+b]
		}
		for i := 0; i < RS41_REEDSOLOMON_NROOTS; i++ {
			block[RS41_REEDSOLOMON_K+i] = parity[RS41_REEDSOLOMON_NROOTS*b+i]
		}

		var n = decode_rs_char(rs, block[:])
		if n < 0 {
			valid = false
			continue
		}
		corrected += n

		// Reinterleave the corrected symbols
		for i := 0; i < chunkLen; i++ {
			payload[RS41_REEDSOLOMON_INTERLEAVING*i+b] = block[i]
		}
		for i := 0; i < RS41_REEDSOLOMON_NROOTS; i++ {
			parity[RS41_REEDSOLOMON_NROOTS*b+i] = block[RS41_REEDSOLOMON_K+i]
		}
	}

	return corrected, valid
}

// Compute and store the parity region for a descrambled frame.  Used by
// the reference generator and the loopback tests.
func rs41FECEncode(rs *rs_t, frame []byte) {
	var chunkLen = rs41ChunkLen(frame)
	var payload = frame[RS41_FLAG_POS:]
	var parity = frame[RS41_PARITY_POS : RS41_PARITY_POS+RS41_RS_LEN]

	var block [RS41_REEDSOLOMON_N]byte

	for b := 0; b < RS41_REEDSOLOMON_INTERLEAVING; b++ {
		for i := range block {
			block[i] = 0
		}
		for i := 0; i < chunkLen; i++ {
			block[i] = payload[RS41_REEDSOLOMON_INTERLEAVING*i+b]
		}

		encode_rs_char(rs, block[:RS41_REEDSOLOMON_K], block[RS41_REEDSOLOMON_K:])

		for i := 0; i < RS41_REEDSOLOMON_NROOTS; i++ {
			parity[RS41_REEDSOLOMON_NROOTS*b+i] = block[RS41_REEDSOLOMON_K+i]
		}
	}
}
