// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_decodeCalibration_defaults(t *testing.T) {
	var c = decodeCalibration(rs41DefaultCalibData[:])

	assert.Equal(t, "S3220650", c.Serial)
	assert.InDelta(t, 750.0, c.TRef[0], 1e-6)
	assert.InDelta(t, 1100.0, c.TRef[1], 1e-6)
	assert.InDelta(t, -243.91079711914062, c.TTempPoly[0], 1e-9)
	assert.Equal(t, uint16(30600), c.BurstkillTimer)

	// The gain coefficients come in near unity.
	assert.InDelta(t, 1.0, c.TCalibCoeff[0], 0.1)
	assert.InDelta(t, 1.0, c.THCalibCoeff[0], 0.1)
}

func Test_CalibrationAssembler_initial_state(t *testing.T) {
	var c = NewCalibrationAssembler()

	assert.False(t, c.Calibrated())
	assert.Equal(t, RS41_CALIB_FRAGCOUNT, c.MissingFragments())
	assert.Equal(t, "S3220650", c.Data().Serial, "default table must be usable before any fragment")
}

func Test_CalibrationAssembler_assembly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var c = NewCalibrationAssembler()

		var order = rapid.Permutation(fragmentSequence()).Draw(t, "order")

		for n, frag := range order {
			require.False(t, c.Calibrated(), "calibrated before all fragments landed")

			var data = DefaultCalibrationFragment(frag)
			c.Apply(frag, data[:])

			assert.Equal(t, RS41_CALIB_FRAGCOUNT-n-1, c.MissingFragments())
		}

		assert.True(t, c.Calibrated())
		assert.Equal(t, 0, c.MissingFragments())
		assert.Equal(t, "S3220650", c.Data().Serial)
	})
}

func fragmentSequence() []int {
	var seq = make([]int, RS41_CALIB_FRAGCOUNT)
	for i := range seq {
		seq[i] = i
	}
	return seq
}

func Test_CalibrationAssembler_repeats_and_out_of_range(t *testing.T) {
	var c = NewCalibrationAssembler()

	var frag = DefaultCalibrationFragment(5)
	c.Apply(5, frag[:])
	c.Apply(5, frag[:])
	assert.Equal(t, RS41_CALIB_FRAGCOUNT-1, c.MissingFragments(), "repeats count once")

	c.Apply(-1, frag[:])
	c.Apply(RS41_CALIB_FRAGCOUNT, frag[:])
	c.Apply(6, frag[:3])
	assert.Equal(t, RS41_CALIB_FRAGCOUNT-1, c.MissingFragments(), "invalid fragments are ignored")
}

func Test_CalibrationAssembler_Reset(t *testing.T) {
	var c = NewCalibrationAssembler()

	for i := 0; i < RS41_CALIB_FRAGCOUNT; i++ {
		var frag = DefaultCalibrationFragment(i)
		c.Apply(i, frag[:])
	}
	require.True(t, c.Calibrated())

	c.Reset()
	assert.False(t, c.Calibrated())
	assert.Equal(t, RS41_CALIB_FRAGCOUNT, c.MissingFragments())
}
