// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Fixed-size framing.
 *
 *		Groups the sliced byte stream into RS41_FRAME_LEN byte
 *		buffers for the decoder.  Preamble hunting and bit-level
 *		alignment are the upstream framer's job; this stage only
 *		restores frame boundaries in an already aligned stream.
 *
 *----------------------------------------------------------------*/

type FrameAccumulator struct {
	buf    [RS41_FRAME_LEN]byte
	fill   int
	frames [][]byte
}

func NewFrameAccumulator() *FrameAccumulator {
	return &FrameAccumulator{}
}

// Process appends bytes and returns the completed frames, if any.  Each
// returned frame is a fresh copy owned by the caller; the backing list
// is reused by the next call.
func (f *FrameAccumulator) Process(in []byte) [][]byte {
	f.frames = f.frames[:0]

	for len(in) > 0 {
		var n = copy(f.buf[f.fill:], in)
		f.fill += n
		in = in[n:]

		if f.fill == RS41_FRAME_LEN {
			var frame = make([]byte, RS41_FRAME_LEN)
			copy(frame, f.buf[:])
			f.frames = append(f.frames, frame)
			f.fill = 0
		}
	}

	return f.frames
}

// Reset discards any partially accumulated frame.
func (f *FrameAccumulator) Reset() {
	f.fill = 0
}
