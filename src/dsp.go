// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:     Filter kernels used ahead of timing recovery.
 *
 *		The Gardner loop needs more samples per symbol than the
 *		demodulator delivers, so the input is run through a
 *		polyphase interpolating FIR built from a windowed-sinc
 *		lowpass prototype.
 *
 * Reference:	http://www.labbookpages.co.uk/audio/firWindowing.html
 *
 *----------------------------------------------------------------*/

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type fir_window_t int

const (
	FIR_WINDOW_TRUNCATED fir_window_t = iota
	FIR_WINDOW_HAMMING
	FIR_WINDOW_BLACKMAN
)

// Multiplier for the window shape at tap j of a size-tap kernel.
func fir_window(windowType fir_window_t, _size int, _j int) float64 {
	var size = float64(_size)
	var j = float64(_j)

	var w float64

	switch windowType {
	case FIR_WINDOW_HAMMING:
		w = 0.53836 - 0.46164*math.Cos((j*2*math.Pi)/(size-1))

	case FIR_WINDOW_BLACKMAN:
		w = 0.42659 - 0.49656*math.Cos((j*2*math.Pi)/(size-1)) +
			0.076849*math.Cos((j*4*math.Pi)/(size-1))

	case FIR_WINDOW_TRUNCATED:
		fallthrough
	default:
		w = 1.0
	}

	return w
}

/*------------------------------------------------------------------
 *
 * Name:        gen_lowpass
 *
 * Purpose:     Generate a low pass filter kernel, unity gain at DC.
 *
 * Inputs:   	fc		- Cutoff frequency as fraction of sampling frequency.
 *		filter_size	- Number of filter taps.
 *		wtype		- Window type, FIR_WINDOW_HAMMING, etc.
 *
 * Outputs:     lp_filter
 *
 *----------------------------------------------------------------*/

func gen_lowpass(fc float64, lp_filter []float64, filter_size int, wtype fir_window_t) {
	var center = 0.5 * float64(filter_size-1)

	for j := 0; j < filter_size; j++ {
		var sinc float64

		if float64(j)-center == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*(float64(j)-center)) / (math.Pi * (float64(j) - center))
		}

		lp_filter[j] = sinc * fir_window(wtype, filter_size, j)
	}

	// Normalize for unity gain at DC.
	var G float64
	for j := 0; j < filter_size; j++ {
		G += lp_filter[j]
	}
	for j := 0; j < filter_size; j++ {
		lp_filter[j] /= G
	}
}

/*------------------------------------------------------------------
 *
 * Name:        PolyphaseFilter
 *
 * Purpose:	Interpolate a sample stream by an integer factor.
 *
 *		The prototype lowpass (cutoff at the original Nyquist
 *		frequency, scaled by the interpolation factor for unity
 *		passband gain) is split into interp subfilters; each
 *		input sample yields interp output samples, one per
 *		subfilter, against the same input history.
 *
 *----------------------------------------------------------------*/

const POLYPHASE_TAPS_PER_PHASE = 9

type PolyphaseFilter struct {
	interp int
	phases [][]float64
	hist   []float64 // most recent input sample first
	out    []float64 // scratch, reused between calls
}

func NewPolyphaseFilter(interp int) *PolyphaseFilter {
	var size = POLYPHASE_TAPS_PER_PHASE * interp
	var proto = make([]float64, size)

	gen_lowpass(0.5/float64(interp), proto, size, FIR_WINDOW_HAMMING)

	var pf = &PolyphaseFilter{
		interp: interp,
		phases: make([][]float64, interp),
		hist:   make([]float64, POLYPHASE_TAPS_PER_PHASE),
		out:    make([]float64, interp),
	}
	for k := 0; k < interp; k++ {
		pf.phases[k] = make([]float64, POLYPHASE_TAPS_PER_PHASE)
		for j := 0; j < POLYPHASE_TAPS_PER_PHASE; j++ {
			// Gain interp compensates for the rate increase.
			pf.phases[k][j] = proto[j*interp+k] * float64(interp)
		}
	}
	return pf
}

func (pf *PolyphaseFilter) Interp() int {
	return pf.interp
}

// Feed feeds one input sample and returns the interp interpolated output
// samples.  The returned slice is reused by the next call.
func (pf *PolyphaseFilter) Feed(sample float64) []float64 {
	copy(pf.hist[1:], pf.hist[:len(pf.hist)-1])
	pf.hist[0] = sample

	for k := 0; k < pf.interp; k++ {
		pf.out[k] = floats.Dot(pf.phases[k], pf.hist)
	}
	return pf.out
}
