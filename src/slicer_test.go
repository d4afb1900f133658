// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Slicer_msb_first(t *testing.T) {
	var s = NewSlicer()

	// 0xA5 = 1010 0101, most significant bit first.
	var out = s.Process([]float64{1, -1, 1, -1, -1, 1, -1, 1})
	assert.Equal(t, []byte{0xA5}, out)
}

func Test_Slicer_zero_is_one(t *testing.T) {
	var s = NewSlicer()

	var out = s.Process([]float64{0, 0, 0, 0, 0, 0, 0, 0})
	assert.Equal(t, []byte{0xFF}, out)
}

func Test_Slicer_partial_bytes(t *testing.T) {
	var s = NewSlicer()

	assert.Empty(t, s.Process([]float64{1, 1, 1}))
	assert.Empty(t, s.Process([]float64{1, 1, 1, 1}))

	// The 8th bit completes the byte across call boundaries.
	assert.Equal(t, []byte{0xFE}, s.Process([]float64{-1}))
}

func Test_Slicer_roundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var want = rapid.SliceOf(rapid.Byte()).Draw(t, "bytes")
		var s = NewSlicer()

		var got = s.Process(NRZSamples(want, 1))
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got)
		}
	})
}
