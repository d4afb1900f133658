// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_FrameAccumulator_chunking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f = NewFrameAccumulator()

		var nFrames = rapid.IntRange(1, 5).Draw(t, "nFrames")
		var stream = rapid.SliceOfN(rapid.Byte(), nFrames*RS41_FRAME_LEN, nFrames*RS41_FRAME_LEN).
			Draw(t, "stream")

		// Feed in arbitrary block sizes.
		var frames [][]byte
		for len(stream) > 0 {
			var n = rapid.IntRange(1, len(stream)).Draw(t, "blockSize")
			frames = append(frames, f.Process(stream[:n])...)
			stream = stream[n:]
		}

		require.Len(t, frames, nFrames)
		for _, frame := range frames {
			assert.Len(t, frame, RS41_FRAME_LEN)
		}
	})
}

func Test_FrameAccumulator_frames_are_copies(t *testing.T) {
	var f = NewFrameAccumulator()

	var stream = make([]byte, 2*RS41_FRAME_LEN)
	for i := range stream {
		stream[i] = byte(i)
	}

	var frames = f.Process(stream)
	require.Len(t, frames, 2)
	assert.Equal(t, byte(0), frames[0][0])
	assert.Equal(t, byte(RS41_FRAME_LEN%256), frames[1][0])

	// A later frame must not alias an earlier one.
	frames[1][0] = 0xEE
	assert.Equal(t, byte(0), frames[0][0])
}

func Test_FrameAccumulator_Reset(t *testing.T) {
	var f = NewFrameAccumulator()

	assert.Empty(t, f.Process(make([]byte, RS41_FRAME_LEN-1)))
	f.Reset()

	// After a reset the next frame starts from byte zero again.
	var frames = f.Process(make([]byte, RS41_FRAME_LEN))
	assert.Len(t, frames, 1)
}
