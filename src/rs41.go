// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*--------------------------------------------------------------------------------
 *
 * Purpose:	Protocol constants for the Vaisala RS41 radiosonde frame format.
 *
 *		An RS41 transmits 4800 baud GFSK frames of a fixed size.  Each
 *		frame is scrambled with a fixed 64-byte pseudorandom sequence
 *		and protected by two interleaved Reed-Solomon codewords.  The
 *		payload is a sequence of self-describing subframes, each with
 *		its own CRC.
 *
 * References:	https://github.com/bazjo/RS41_Decoding
 *		Frame captures from live sondes.
 *
 *--------------------------------------------------------------------------------*/

const RS41_BAUDRATE = 4800

// Frame geometry.  All sizes in bytes.
//
// A frame always occupies RS41_FRAME_LEN bytes after fixed-size framing.
// Regular frames only carry meaningful data up to the end of the data
// region; the extension region is meaningful when the frame-type byte
// is RS41_FLAG_EXTENDED.

const (
	RS41_SYNC_LEN   = 8
	RS41_RS_LEN     = 48  // Reed-Solomon parity region
	RS41_DATA_LEN   = 263 // data region following the frame-type byte
	RS41_XDATA_LEN  = 198 // extension region, extended frames only
	RS41_FRAME_LEN  = RS41_SYNC_LEN + RS41_RS_LEN + 1 + RS41_DATA_LEN + RS41_XDATA_LEN // 518
	RS41_FLAG_POS   = RS41_SYNC_LEN + RS41_RS_LEN                                      // 56, frame-type byte
	RS41_DATA_POS   = RS41_FLAG_POS + 1                                                // 57
	RS41_PARITY_POS = RS41_SYNC_LEN                                                    // 8
)

const (
	RS41_FLAG_REGULAR  = 0x0F
	RS41_FLAG_EXTENDED = 0xF0
)

// On-air sync word, before descrambling.
var rs41Syncword = [RS41_SYNC_LEN]byte{0x86, 0x35, 0xf4, 0x40, 0x93, 0xdf, 0x1a, 0x60}

// Reed-Solomon code parameters.  Two interleaved RS(255,231) codewords
// over GF(2^8) cover the frame-type byte plus the data (and extension)
// region.  Regular frames shorten the code by zero padding.
const (
	RS41_REEDSOLOMON_N            = 255
	RS41_REEDSOLOMON_K            = 231
	RS41_REEDSOLOMON_POLY         = 0x11d // field generator polynomial
	RS41_REEDSOLOMON_FIRST_ROOT   = 0
	RS41_REEDSOLOMON_ROOT_SKIP    = 1
	RS41_REEDSOLOMON_NROOTS       = RS41_REEDSOLOMON_N - RS41_REEDSOLOMON_K // 24 parity symbols per block
	RS41_REEDSOLOMON_INTERLEAVING = 2
)

// Subframe type tags.
const (
	RS41_SFTYPE_EMPTY   = 0x76
	RS41_SFTYPE_INFO    = 0x79
	RS41_SFTYPE_PTU     = 0x7A
	RS41_SFTYPE_GPSPOS  = 0x7B
	RS41_SFTYPE_GPSINFO = 0x7C
	RS41_SFTYPE_GPSRAW  = 0x7D
	RS41_SFTYPE_XDATA   = 0x7E
)

const RS41_SERIAL_LEN = 8

// Subframe CRC parameters (CRC-16/CCITT-FALSE).
const (
	CCITT_FALSE_POLY = 0x1021
	CCITT_FALSE_INIT = 0xFFFF
)

// Calibration table geometry.  The full table is broadcast one fragment
// per status subframe, round-robin.
const (
	RS41_CALIB_FRAGSIZE  = 16
	RS41_CALIB_FRAGCOUNT = 51
	RS41_CALIB_SIZE      = RS41_CALIB_FRAGSIZE * RS41_CALIB_FRAGCOUNT // 816
)

const RS41_PRN_PERIOD = 64

/* Pseudorandom scrambling sequence, obtained by autocorrelating the extra data
 * found at the end of frames from a radiosonde with an ozone sensor. */
var rs41PRN = [RS41_PRN_PERIOD]byte{
	0x96, 0x83, 0x3e, 0x51, 0xb1, 0x49, 0x08, 0x98,
	0x32, 0x05, 0x59, 0x0e, 0xf9, 0x44, 0xc6, 0x26,
	0x21, 0x60, 0xc2, 0xea, 0x79, 0x5d, 0x6d, 0xa1,
	0x54, 0x69, 0x47, 0x0c, 0xdc, 0xe8, 0x5c, 0xf1,
	0xf7, 0x76, 0x82, 0x7f, 0x07, 0x99, 0xa2, 0x2c,
	0x93, 0x7c, 0x30, 0x63, 0xf5, 0x10, 0x2e, 0x61,
	0xd0, 0xbc, 0xb4, 0xb6, 0x06, 0xaa, 0xf4, 0x23,
	0x78, 0x6e, 0x3b, 0xae, 0xbf, 0x7b, 0x4c, 0xc1,
}
