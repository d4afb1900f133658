// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Convert soft symbol samples to a packed byte stream.
 *
 *		Sign decides the bit (>= 0 is a one); bits accumulate
 *		most significant first and a byte is emitted once eight
 *		have been collected.
 *
 *----------------------------------------------------------------*/

type Slicer struct {
	acc    byte
	offset int
	out    []byte
}

func NewSlicer() *Slicer {
	return &Slicer{}
}

// Process slices a block of soft symbols.  The returned slice is reused
// by the next call.
func (s *Slicer) Process(symbols []float64) []byte {
	s.out = s.out[:0]

	for _, sym := range symbols {
		s.acc <<= 1
		if sym >= 0 {
			s.acc |= 1
		}

		s.offset++
		if s.offset == 8 {
			s.out = append(s.out, s.acc)
			s.acc = 0
			s.offset = 0
		}
	}

	return s.out
}
